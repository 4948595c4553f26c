package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCredentialGuide explains where the two secrets come from
func WriteCredentialGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "🔑 XDIGEST CREDENTIALS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "xdigest reads your home timeline through an API proxy and needs two values:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. API key     issued by the proxy service (sent as the apikey header)")
	fmt.Fprintln(w, "  2. Auth token  the auth_token cookie of your logged-in x.com session")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "To find the auth token:")
	fmt.Fprintln(w, "   - Log in at https://x.com in your browser")
	fmt.Fprintln(w, "   - Open Developer Tools (F12) and go to Application > Cookies")
	fmt.Fprintln(w, "   - Copy the value of the auth_token cookie")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Values can also be supplied with XDIGEST_API_KEY and XDIGEST_AUTH_TOKEN,")
	fmt.Fprintln(w, "or a config.json file holding {\"apikey\": ..., \"authtoken\": ...}.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  The auth token grants full access to your account. Never share it.")
	fmt.Fprintln(w, rule)
}
