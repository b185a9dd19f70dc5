package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortFolders(t *testing.T) {
	folders := []Folder{
		{Name: "zeta", Type: FolderCustom},
		{Name: "Trash", Type: FolderTrash},
		{Name: "Inbox", Type: FolderInbox},
		{Name: "Alpha", Type: FolderCustom},
		{Name: "Sent", Type: FolderSent},
	}
	SortFolders(folders)

	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Inbox", "Sent", "Trash", "Alpha", "zeta"}, names)
}

func TestSortFoldersUnknownTypeSortsLast(t *testing.T) {
	folders := []Folder{
		{Name: "Mystery", Type: FolderType("shared")},
		{Name: "Projects", Type: FolderCustom},
	}
	SortFolders(folders)
	assert.Equal(t, "Projects", folders[0].Name)
	assert.Equal(t, "Mystery", folders[1].Name)
}

// Case must not split the alphabet: "apple" sorts before "Zebra".
func TestSortLabelsCaseInsensitive(t *testing.T) {
	labels := []Label{{Name: "Zebra"}, {Name: "apple"}, {Name: "Mango"}}
	SortLabels(labels)
	assert.Equal(t, "apple", labels[0].Name)
	assert.Equal(t, "Mango", labels[1].Name)
	assert.Equal(t, "Zebra", labels[2].Name)
}

func TestSortViewsAndSwimlanesBySortOrder(t *testing.T) {
	views := []View{{Name: "b", SortOrder: 2}, {Name: "a", SortOrder: 0}, {Name: "c", SortOrder: 1}}
	SortViews(views)
	assert.Equal(t, "a", views[0].Name)
	assert.Equal(t, "c", views[1].Name)
	assert.Equal(t, "b", views[2].Name)

	lanes := []Swimlane{{Title: "later", SortOrder: 5}, {Title: "first", SortOrder: 0}}
	SortSwimlanes(lanes)
	assert.Equal(t, "first", lanes[0].Title)
}

func TestSortConversationsNewestFirst(t *testing.T) {
	now := time.Now()
	convs := []Conversation{
		{ID: "old", LatestAt: now.Add(-time.Hour)},
		{ID: "new", LatestAt: now},
		{ID: "middle", LatestAt: now.Add(-time.Minute)},
	}
	SortConversations(convs)
	assert.Equal(t, "new", convs[0].ID)
	assert.Equal(t, "middle", convs[1].ID)
	assert.Equal(t, "old", convs[2].ID)
}

func TestSortContacts(t *testing.T) {
	contacts := []Contact{{Name: "noor"}, {Name: "Ada"}}
	SortContacts(contacts)
	assert.Equal(t, "Ada", contacts[0].Name)
}
