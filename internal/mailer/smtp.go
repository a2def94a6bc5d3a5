package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// SMTP sends notifications through a plain SMTP relay.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

const downloadBodyHTML = `<div dir="rtl" style="font-family: Tahoma, sans-serif; max-width: 600px; margin: 0 auto; padding: 32px;">
<h2>كتابك جاهز للتحميل!</h2>
<p>مرحباً %s،</p>
<p>اكتمل توليد كتابك. رقم التتبع: <code>%s</code></p>
<p><a href="%s">تحميل الحزمة</a></p>
<p>ينتهي رابط التحميل في %s.</p>
</div>`

// SendDownloadLink emails the submitter their download link.
func (m *SMTP) SendDownloadLink(ctx context.Context, n DownloadNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := n.Name
	if name == "" {
		name = n.To
	}

	subject := "مخطوطتك جاهزة! | Your Book is Ready — " + n.TrackingCode
	body := fmt.Sprintf(downloadBodyHTML, name, n.TrackingCode, n.DownloadURL, n.ExpiresAt.Format("2006-01-02 15:04 MST"))

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", n.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return smtp.SendMail(addr, auth, m.From, []string{n.To}, []byte(msg.String()))
}

var _ Mailer = (*SMTP)(nil)
