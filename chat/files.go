package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatclient/api"

	"github.com/rs/zerolog/log"
)

// UploadFile sends the file at path to the open conversation. Files over the
// upload limit are rejected before any request is made.
func (c *Controller) UploadFile(ctx context.Context, path string) {
	if path == "" {
		return
	}
	user := c.currentUser()
	convID := c.currentConversationID()
	if user == nil || convID == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		c.view.Alert("Error uploading file: " + err.Error())
		return
	}
	if info.IsDir() {
		c.view.Alert("Error uploading file: " + path + " is a directory")
		return
	}
	if info.Size() > api.MaxUploadSize {
		c.view.Alert("File size exceeds 1GB limit")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		c.view.Alert("Error uploading file: " + err.Error())
		return
	}
	defer f.Close()

	name := filepath.Base(path)
	c.view.Status(fmt.Sprintf("Uploading %s (%s)...", name, FormatFileSize(info.Size())))
	log.Info().Str("file", name).Int64("size", info.Size()).Str("conversation", convID).Msg("[files] upload")

	if _, err := c.backend.UploadFile(ctx, convID, user.ID, name, info.Size(), f); err != nil {
		log.Error().Err(err).Str("file", name).Msg("[files] upload failed")
		switch {
		case errors.Is(err, api.ErrFileTooLarge):
			c.view.Alert("File size exceeds 1GB limit")
		case api.StatusOf(err) != 0:
			c.view.Alert("File upload failed")
		default:
			c.view.Alert("Error uploading file: " + err.Error())
		}
		c.view.Status("")
		return
	}
	c.view.Status("Uploaded " + name)
	_ = c.OpenConversation(ctx, convID)
}

// DownloadFile fetches fileID and saves it under dir (the configured download
// directory when dir is empty). Existing files are never overwritten.
func (c *Controller) DownloadFile(ctx context.Context, fileID, dir string) {
	if dir == "" {
		dir = c.downloadDir
	}
	env, data, err := c.backend.DownloadFile(ctx, fileID)
	if err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("[files] download failed")
		c.view.Alert("Error downloading file: " + describe(err))
		return
	}

	path, err := SaveFile(dir, env.Filename, data)
	if err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("[files] save failed")
		c.view.Alert("Error downloading file: " + err.Error())
		return
	}
	if err := c.store.RecordDownload(fileID, path); err != nil {
		log.Warn().Err(err).Str("file_id", fileID).Msg("[files] record download failed")
	}

	c.mu.Lock()
	c.state.Downloads[fileID] = path
	c.mu.Unlock()

	log.Info().Str("file_id", fileID).Str("path", path).Int("size", len(data)).Msg("[files] saved")
	c.view.Status("Saved " + path)
	c.renderMessages()
}

// SaveFile writes data into dir under the base of filename, choosing "name (n).ext"
// when the name is taken. The data is written to a temp file first and renamed
// into place, so a partial file never appears under the final name.
func SaveFile(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	base := safeName(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		target := filepath.Join(dir, name)

		// Reserve the name; O_EXCL fails if anything already holds it.
		f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		f.Close()

		if err := os.Rename(tmpName, target); err != nil {
			os.Remove(target)
			return "", err
		}
		return target, nil
	}
	return "", fmt.Errorf("no free name for %s in %s", base, dir)
}

func safeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" || name == "" {
		return "download"
	}
	return name
}
