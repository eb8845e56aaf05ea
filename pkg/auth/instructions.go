package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteSessionGuide explains how to copy the SMSESS cookie from a browser
func WriteSessionGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "FINDING YOUR SMUGMUG SESSION COOKIE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A session is only needed for galleries that are not public.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in at https://www.smugmug.com in your browser.")
	fmt.Fprintln(w, "2. Open Developer Tools (F12, or Cmd+Option+I on Mac).")
	fmt.Fprintln(w, "3. Chrome/Edge: Application tab. Firefox: Storage tab.")
	fmt.Fprintln(w, "4. Expand Cookies and select https://www.smugmug.com.")
	fmt.Fprintln(w, "5. Copy the value of the SMSESS cookie.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The value grants access to your account. Do not share it.")
	fmt.Fprintln(w, "smugmirror keeps it in the system keyring or an encrypted file.")
	fmt.Fprintln(w, rule)
}
