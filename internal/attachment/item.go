// Package attachment manages the image upload list of an approval form.
package attachment

import (
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/garyjia/approval-console/internal/domain/entity"
)

// Status is the upload state of one list item
type Status string

const (
	StatusUploading Status = "uploading"
	StatusDone      Status = "done"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

// Item is one entry of the upload list. UID is the server id once uploaded.
type Item struct {
	UID      string          `json:"uid"`
	ID       int64           `json:"id,omitempty"`
	Name     string          `json:"name"`
	URL      string          `json:"url,omitempty"`
	Status   Status          `json:"status"`
	FileType entity.FileType `json:"fileType,omitempty"`
}

// AttachmentID returns the server id of the item, 0 when it has none
func (i Item) AttachmentID() int64 {
	if i.ID > 0 {
		return i.ID
	}
	id, err := strconv.ParseInt(i.UID, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// Persisted reports whether the item finished uploading
func (i Item) Persisted() bool {
	return i.Status == StatusDone || i.Status == StatusReady
}

// FileList is the ordered upload list bound to the image field
type FileList []Item

// FromAttachments builds the list of a saved record for prefill
func FromAttachments(atts []entity.Attachment) FileList {
	list := make(FileList, 0, len(atts))
	for _, a := range atts {
		list = append(list, Item{
			UID:      strconv.FormatInt(a.ID, 10),
			ID:       a.ID,
			Name:     a.FileName,
			URL:      a.FileURL,
			Status:   StatusDone,
			FileType: a.FileType,
		})
	}
	return list
}

// IDs returns the attachment ids of finished items, skipping items without one
func (l FileList) IDs() []int64 {
	ids := make([]int64, 0, len(l))
	for _, item := range l {
		if !item.Persisted() {
			continue
		}
		if id := item.AttachmentID(); id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Find returns the item with uid
func (l FileList) Find(uid string) (Item, bool) {
	for _, item := range l {
		if item.UID == uid {
			return item, true
		}
	}
	return Item{}, false
}

// Without returns a copy of the list minus uid
func (l FileList) Without(uid string) FileList {
	out := make(FileList, 0, len(l))
	for _, item := range l {
		if item.UID != uid {
			out = append(out, item)
		}
	}
	return out
}

var excelTypes = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
}

// Classify sniffs content to sort a file into IMAGE, EXCEL or OTHER
func Classify(content []byte) entity.FileType {
	mt := mimetype.Detect(content)
	if strings.HasPrefix(mt.String(), "image/") {
		return entity.FileTypeImage
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, x := range excelTypes {
			if m.Is(x) {
				return entity.FileTypeExcel
			}
		}
	}
	return entity.FileTypeOther
}
