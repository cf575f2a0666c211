package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/garyjia/approval-console/internal/application/port"
	"github.com/garyjia/approval-console/internal/domain"
)

// Defaults of Config
const (
	DefaultMaxSize  int64 = 10 * 1024 * 1024
	DefaultMaxCount       = 3
)

// Config bounds the upload list
type Config struct {
	MaxSize  int64
	MaxCount int
}

// Manager uploads and removes attachments through the attachment service
type Manager struct {
	api    port.AttachmentAPI
	cfg    Config
	logger *zap.Logger
}

// NewManager creates a manager; zero config fields take the defaults
func NewManager(api port.AttachmentAPI, cfg Config, logger *zap.Logger) *Manager {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultMaxCount
	}
	return &Manager{api: api, cfg: cfg, logger: logger}
}

// Config returns the effective limits
func (m *Manager) Config() Config {
	return m.cfg
}

// CheckFile rejects files above the size limit
func (m *Manager) CheckFile(name string, size int64) error {
	if size > m.cfg.MaxSize {
		return domain.Newf(domain.ErrAttachment, "check file",
			"文件 \"%s\" 超过%dM，请选择较小的文件", name, m.cfg.MaxSize/(1024*1024))
	}
	return nil
}

// CheckCount rejects a new file when the list is full
func (m *Manager) CheckCount(current int) error {
	if current >= m.cfg.MaxCount {
		return domain.Newf(domain.ErrAttachment, "check count", "最多上传%d张图片", m.cfg.MaxCount)
	}
	return nil
}

// Upload sends one file and returns its finished list item. formID 0 uploads
// without a form (create mode). On failure no item is produced.
func (m *Manager) Upload(ctx context.Context, formID int64, current int, name string, content io.Reader) (Item, error) {
	if err := m.CheckCount(current); err != nil {
		return Item{}, err
	}

	buf, err := io.ReadAll(io.LimitReader(content, m.cfg.MaxSize+1))
	if err != nil {
		return Item{}, domain.Wrap(domain.ErrAttachment, "read upload", err)
	}
	if err := m.CheckFile(name, int64(len(buf))); err != nil {
		return Item{}, err
	}

	att, err := m.api.UploadAttachment(ctx, formID, name, bytes.NewReader(buf))
	if err != nil {
		m.logger.Error("Attachment upload failed",
			zap.String("file", name),
			zap.Int64("form_id", formID),
			zap.Error(err))
		return Item{}, &domain.Error{Kind: domain.ErrAttachment, Op: "upload", Message: fmt.Sprintf("%s 上传失败", name), Err: err}
	}

	fileType := att.FileType
	if fileType == "" {
		fileType = Classify(buf)
	}
	m.logger.Info("Attachment uploaded",
		zap.String("file", name),
		zap.Int64("id", att.ID),
		zap.String("type", string(fileType)))

	return Item{
		UID:      strconv.FormatInt(att.ID, 10),
		ID:       att.ID,
		Name:     name,
		URL:      att.FileURL,
		Status:   StatusDone,
		FileType: fileType,
	}, nil
}

// Remove drops uid from list. A finished item of a saved form is deleted
// upstream by id first; if that fails the list comes back unchanged with the
// error so the user can retry. Other items are removed locally.
func (m *Manager) Remove(ctx context.Context, formID int64, list FileList, uid string) (FileList, error) {
	item, ok := list.Find(uid)
	if !ok {
		return list, nil
	}

	if DeletesUpstream(formID, item) {
		id := item.AttachmentID()
		if err := m.api.DeleteAttachment(ctx, formID, id); err != nil {
			m.logger.Error("Attachment delete failed",
				zap.Int64("form_id", formID),
				zap.Int64("id", id),
				zap.Error(err))
			return list, &domain.Error{Kind: domain.ErrAttachment, Op: "delete", Message: "删除附件失败", Err: err}
		}
		m.logger.Info("Attachment deleted", zap.Int64("form_id", formID), zap.Int64("id", id))
	}
	return list.Without(uid), nil
}

// DeletesUpstream reports whether removing item from the list of form formID
// deletes the attachment record: only finished uploads of a saved form do
func DeletesUpstream(formID int64, item Item) bool {
	return formID > 0 && item.Status == StatusDone && item.AttachmentID() > 0
}
