package printing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxImageBytes caps inlined images
const maxImageBytes = 5 << 20

// CertificateKind selects the wording of a certificate
type CertificateKind string

const (
	KindAttendee     CertificateKind = "attendee"
	KindOrganisation CertificateKind = "organisation"
)

// CertificateDocument is everything printed on one certificate
type CertificateDocument struct {
	Kind             CertificateKind
	CertificateID    string
	ProjectName      string
	Precis           string
	OrganisationName string
	RecipientName    string
	CourseName       string
	TrainingCenter   string
	Competence       string
	StartDate        time.Time
	EndDate          time.Time
	IssuedAt         time.Time
	VerifyURL        string

	// Image paths, absolute or relative to the media root. Missing files are
	// left out of the page.
	ProjectLogo      string
	OrganisationLogo string
	Signature        string
	Background       string
}

type layoutData struct {
	CertificateDocument
	Headline         string
	ProjectLogo      template.URL
	OrganisationLogo template.URL
	Signature        template.URL
	Background       template.URL
}

var certificateTemplate = template.Must(template.New("certificate").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 January 2006")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.CertificateID}}</title>
<style>
@page { size: 297mm 210mm; margin: 0; }
body { margin: 0; font-family: "DejaVu Sans", Arial, sans-serif; color: #222; }
.page { position: relative; width: 297mm; height: 210mm; box-sizing: border-box; padding: 18mm 22mm; }
.background { position: absolute; top: 0; left: 0; width: 297mm; height: 210mm; z-index: -1; }
.logos { display: flex; justify-content: space-between; height: 28mm; }
.logos img { max-height: 28mm; max-width: 70mm; }
h1 { text-align: center; font-size: 30pt; margin: 8mm 0 4mm; }
.recipient { text-align: center; font-size: 24pt; font-weight: bold; margin: 6mm 0; }
.body { text-align: center; font-size: 12pt; line-height: 1.5; }
.precis { text-align: center; font-size: 10pt; margin-top: 6mm; }
.footer { position: absolute; bottom: 16mm; left: 22mm; right: 22mm; display: flex; justify-content: space-between; align-items: flex-end; font-size: 9pt; }
.signature img { max-height: 22mm; }
</style>
</head>
<body>
<div class="page">
{{- if .Background}}
<img class="background" src="{{.Background}}" alt="">
{{- end}}
<div class="logos">
<div>{{if .ProjectLogo}}<img src="{{.ProjectLogo}}" alt="{{.ProjectName}}">{{end}}</div>
<div>{{if .OrganisationLogo}}<img src="{{.OrganisationLogo}}" alt="{{.OrganisationName}}">{{end}}</div>
</div>
<h1>{{.Headline}}</h1>
<div class="body">This is to certify that</div>
<div class="recipient">{{.RecipientName}}</div>
<div class="body">
{{- if eq .Kind "organisation"}}
is a certified organisation of {{.ProjectName}}.
{{- else}}
has attended and completed the course {{.CourseName}}{{if .Competence}} ({{.Competence}}){{end}}
{{- if .TrainingCenter}} at {{.TrainingCenter}}{{end}}
{{- if not .StartDate.IsZero}} from {{date .StartDate}} to {{date .EndDate}}{{end}},
organised by {{.OrganisationName}}.
{{- end}}
</div>
{{- if .Precis}}
<div class="precis">{{.Precis}}</div>
{{- end}}
<div class="footer">
<div>Certificate ID: {{.CertificateID}}<br>Issued: {{date .IssuedAt}}{{if .VerifyURL}}<br>Verify at {{.VerifyURL}}{{end}}</div>
<div class="signature">{{if .Signature}}<img src="{{.Signature}}" alt="signature">{{end}}</div>
</div>
</div>
</body>
</html>
`))

// CertificateLayout renders certificate documents to standalone HTML
type CertificateLayout struct {
	mediaRoot string
	logger    *zap.Logger
}

// NewCertificateLayout creates a layout resolving relative image paths
// against mediaRoot
func NewCertificateLayout(mediaRoot string, logger *zap.Logger) *CertificateLayout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateLayout{mediaRoot: mediaRoot, logger: logger}
}

// Render produces the certificate HTML
func (l *CertificateLayout) Render(ctx context.Context, doc CertificateDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc.CertificateID == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "certificate id is required", nil)
	}

	data := layoutData{
		CertificateDocument: doc,
		Headline:            "Certificate of Completion",
		ProjectLogo:         l.inlineImage(doc.ProjectLogo),
		OrganisationLogo:    l.inlineImage(doc.OrganisationLogo),
		Signature:           l.inlineImage(doc.Signature),
		Background:          l.inlineImage(doc.Background),
	}
	if doc.Kind == KindOrganisation {
		data.Headline = "Certified Organisation"
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "execute certificate template", err)
	}
	return buf.String(), nil
}

// inlineImage returns a data URI for the image at p, or "" when it cannot be
// used.
func (l *CertificateLayout) inlineImage(p string) template.URL {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.mediaRoot, filepath.FromSlash(p))
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		l.logger.Debug("Certificate image skipped", zap.String("path", full), zap.Error(err))
		return ""
	}
	if info.Size() > maxImageBytes {
		l.logger.Debug("Certificate image too large", zap.String("path", full), zap.Int64("bytes", info.Size()))
		return ""
	}
	data, err := os.ReadFile(full)
	if err != nil {
		l.logger.Debug("Certificate image unreadable", zap.String("path", full), zap.Error(err))
		return ""
	}

	mime := imageMIME(full, data)
	if mime == "" {
		l.logger.Debug("Certificate image has unsupported type", zap.String("path", full))
		return ""
	}
	return template.URL(fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)))
}

func imageMIME(name string, data []byte) string {
	if strings.EqualFold(filepath.Ext(name), ".svg") {
		return "image/svg+xml"
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return ""
	}
	return mime
}
