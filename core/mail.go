package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

var (
	templates       map[string]emailTemplates // {name: {ext: template}}
	templatesMu     sync.RWMutex
	frontendBaseURL string
	appName         string
)

// templateExts are the renditions of an email template, the text one first.
var templateExts = [...]string{".txt", ".gohtml"}

type (
	// executor is satisfied by both text/template and html/template.
	executor interface {
		Execute(w io.Writer, data interface{}) error
	}
	emailTemplates map[string]executor

	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		ReplyTo     *mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// execute renders the ext rendition of the message template; "" when there is none.
func (m *EmailMessage) execute(ext string) (string, error) {
	templatesMu.RLock()
	tmpl, ok := templates[m.TemplateName][ext]
	data := ContextData{AppName: appName, FrontendBaseURL: frontendBaseURL, Data: m.TemplateData}
	templatesMu.RUnlock()
	if !ok {
		return "", nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return "", err
	}
	return buff.String(), nil
}

// Render fills TextContent and HTMLContent in, BodyStr taking precedence over the text template.
func (m *EmailMessage) Render() (err error) {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}
	if m.TextContent == "" {
		if m.TextContent, err = m.execute(templateExts[0]); err != nil {
			return err
		}
	}
	m.HTMLContent, err = m.execute(templateExts[1])
	return err
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	// base64 encode content
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}
	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	if _, err := encoder.Write(content); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
	return nil
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// ParseEmailTemplates parses the `*.txt` and `*.gohtml` templates under dir in fsys.
// Each template is parsed along with its `_base` layout; files starting with "_" are layouts only.
func ParseEmailTemplates(fsys fs.FS, dir string, conf *Config, logger Logger) {
	parsed := make(map[string]emailTemplates)

	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
	}

	strict := conf.Debug || conf.TestMode
	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := parseEmailTemplate(fsys, path.Join(dir, "_base"+ext), fp, strict)
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fp, err), err)
			continue
		}
		if tmpl == nil {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		if parsed[name] == nil {
			parsed[name] = make(emailTemplates)
		}
		parsed[name][ext] = tmpl
	}

	templatesMu.Lock()
	templates = parsed
	frontendBaseURL = conf.FrontendBaseURL
	appName = conf.AppName
	templatesMu.Unlock()
}

// parseEmailTemplate returns nil for files that are not email templates.
func parseEmailTemplate(fsys fs.FS, base, fp string, strict bool) (executor, error) {
	opt := "missingkey=default"
	if strict {
		opt = "missingkey=error"
	}
	switch path.Ext(fp) {
	case templateExts[0]:
		tmpl, err := texttmpl.ParseFS(fsys, base, fp)
		if err != nil {
			return nil, err
		}
		return tmpl.Option(opt), nil
	case templateExts[1]:
		tmpl, err := htmltmpl.ParseFS(fsys, base, fp)
		if err != nil {
			return nil, err
		}
		return tmpl.Option(opt), nil
	}
	return nil, nil
}
