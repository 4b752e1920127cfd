package records

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP source.
type FTPOptions struct {
	Timeout time.Duration

	// User/Password default to anonymous access.
	User     string
	Password string
}

// FTPSource downloads record files over FTP.
type FTPSource struct {
	opts FTPOptions
}

// NewFTPSource creates an FTPSource with the given options.
func NewFTPSource(opts FTPOptions) *FTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPSource{opts: opts}
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "records: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("records: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" {
		return "", "", eris.New("records: empty path in ftp url")
	}
	return host, u.Path, nil
}

// ftpConnReader ties the response reader to its connection so one Close
// releases both.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "records: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "records: quit ftp connection")
	}
	return nil
}

// Download retrieves the file behind the FTP URL. The caller must close
// the returned reader to release the connection.
func (s *FTPSource) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("records: ftp connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(s.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "records: ftp dial")
	}

	if err := conn.Login(s.opts.User, s.opts.Password); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "records: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "records: ftp retrieve")
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}
