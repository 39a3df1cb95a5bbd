package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pagewatch/internal/common"
)

// CollectionPath is users/{owner}/monitors.
func CollectionPath(owner string) string {
	return common.CollectionRoot + "/" + owner + "/" + common.MonitorsCollection
}

// DocPath is users/{owner}/monitors/{id}.
func DocPath(owner, id string) string {
	return CollectionPath(owner) + "/" + id
}

// ParseCollectionPath extracts the owner from a collection path.
func ParseCollectionPath(path string) (owner string, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != common.CollectionRoot || parts[2] != common.MonitorsCollection || parts[1] == "" {
		return "", fmt.Errorf("%w: bad collection path %q", common.ErrValidationFailed, path)
	}
	return parts[1], nil
}

// ParseDocPath extracts owner and document id from a document path.
func ParseDocPath(path string) (owner, id string, err error) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", "", fmt.Errorf("%w: bad document path %q", common.ErrValidationFailed, path)
	}
	owner, err = ParseCollectionPath(path[:i])
	if err != nil {
		return "", "", fmt.Errorf("%w: bad document path %q", common.ErrValidationFailed, path)
	}
	id = path[i+1:]
	if id == "" {
		return "", "", fmt.Errorf("%w: bad document path %q", common.ErrValidationFailed, path)
	}
	return owner, id, nil
}
