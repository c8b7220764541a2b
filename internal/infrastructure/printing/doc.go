// Package printing renders certificates to PDF.
//
// CertificateLayout turns a CertificateDocument into a self-contained HTML
// page (images are inlined as data URIs) and ChromedpRenderer prints that
// page with headless Chrome:
//
//	html, err := layout.Render(ctx, doc)
//	if err != nil {
//	    return err
//	}
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html, Title: doc.CertificateID})
package printing
