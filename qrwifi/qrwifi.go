// Package qrwifi renders Wi-Fi join strings as terminal QR codes, so a
// phone can hop on a network straight off the screen.
package qrwifi

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/wifictl/wifictl/wifi"
)

// Escape handles the special character escaping for SSID and passphrase
// fields of a WIFI: string.
func Escape(s string) string {
	// A replacer is more efficient than calling strings.Replace multiple times.
	r := strings.NewReplacer(
		`\`, `\\`,
		`;`, `\;`,
		`,`, `\,`,
		`:`, `\:`,
		`"`, `\"`,
	)
	return r.Replace(s)
}

// JoinString builds the WIFI:S:...;T:...;P:...;; payload phone cameras
// understand.
func JoinString(ssid, passphrase string, security wifi.SecurityType, hidden bool) string {
	var b strings.Builder

	b.WriteString("WIFI:S:")
	b.WriteString(Escape(ssid))
	b.WriteString(";")

	switch security {
	case wifi.SecurityWPA2Personal, wifi.SecurityWPA3Personal:
		b.WriteString("T:WPA;P:")
		b.WriteString(Escape(passphrase))
		b.WriteString(";")
	case wifi.SecurityWEP:
		b.WriteString("T:WEP;P:")
		b.WriteString(Escape(passphrase))
		b.WriteString(";")
	case wifi.SecurityOpen:
		b.WriteString("T:nopass;")
	default:
		// Don't set T if security is unknown, most readers will assume WPA.
	}

	if hidden {
		b.WriteString("H:true;")
	}

	b.WriteString(";;")
	return b.String()
}

// Render returns the TUI-friendly QR code string for a network.
func Render(ssid, passphrase string, security wifi.SecurityType, hidden bool) (string, error) {
	q, err := qrcode.New(JoinString(ssid, passphrase, security, hidden), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
