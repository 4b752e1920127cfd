// Package records loads business records from CSV and XLSX sources and
// writes enrichment results back out. Sources can be local files, HTTP
// URLs or FTP URLs.
package records

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is the parsed representation of a source file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat infers the file format from the source reference's
// extension. XLSX needs random access, so it is always staged to a
// local file before parsing.
func DetectFormat(ref string) (Format, error) {
	ext := strings.ToLower(path.Ext(refPath(ref)))
	switch ext {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("records: unsupported file extension %q", ext)
	}
}

func refPath(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return u.Path
	}
	return ref
}

// Open returns a reader for the source reference, dispatching on its
// scheme. Plain paths open the local file.
func Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	u, err := url.Parse(ref)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return NewHTTPSource(HTTPOptions{}).Download(ctx, ref)
		case "ftp":
			return NewFTPSource(FTPOptions{}).Download(ctx, ref)
		}
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, eris.Wrap(err, "records: open source file")
	}
	return f, nil
}

// Stage materializes the source as a local file and returns its path.
// Local references are returned as-is; remote ones are downloaded to a
// temp file the caller removes.
func Stage(ctx context.Context, ref string) (localPath string, cleanup func(), err error) {
	u, parseErr := url.Parse(ref)
	if parseErr != nil || u.Scheme == "" || u.Scheme == "file" {
		return strings.TrimPrefix(ref, "file://"), func() {}, nil
	}

	body, err := Open(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp("", "enrich-records-*"+path.Ext(u.Path))
	if err != nil {
		return "", nil, eris.Wrap(err, "records: create staging file")
	}

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "records: stage source")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "records: close staging file")
	}

	name := tmp.Name()
	return name, func() { _ = os.Remove(name) }, nil
}
