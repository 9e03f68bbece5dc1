package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"

	"chatclient/models"
)

// MaxUploadSize is the largest file the client will upload (1 GiB)
const MaxUploadSize int64 = 1 << 30

// ErrFileTooLarge is returned before any request is made for files over MaxUploadSize
var ErrFileTooLarge = errors.New("file size exceeds 1GB limit")

// UploadFile streams r as a multipart upload into a conversation. size must be the
// number of bytes r will yield.
func (c *Client) UploadFile(ctx context.Context, conversationID, senderID, filename string, size int64, r io.Reader) (*models.Message, error) {
	if size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, conversationID, senderID, filename, r)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/files/upload/", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var msg models.Message
	if err := c.send(c.transfer, req, &msg); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &msg, nil
}

func writeUploadForm(mw *multipart.Writer, conversationID, senderID, filename string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", mimeTypeOf(filename))
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	if err := mw.WriteField("conversation_id", conversationID); err != nil {
		return err
	}
	return mw.WriteField("sender_id", senderID)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func mimeTypeOf(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}

// DownloadFile fetches a file envelope and returns it along with the decoded bytes
func (c *Client) DownloadFile(ctx context.Context, fileID string) (*models.Download, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/files/download/?file_id="+url.QueryEscape(fileID), nil)
	if err != nil {
		return nil, nil, err
	}
	var env models.Download
	if err := c.send(c.transfer, req, &env); err != nil {
		return nil, nil, err
	}
	data, err := base64.StdEncoding.DecodeString(env.File)
	if err != nil {
		return nil, nil, fmt.Errorf("decode file %s: %w", fileID, err)
	}
	env.File = ""
	return &env, data, nil
}
