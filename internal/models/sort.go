package models

import (
	"sort"
	"strings"
)

// folderRank fixes the display priority of system folders; custom folders
// sort last, alphabetically.
var folderRank = map[FolderType]int{
	FolderInbox:   0,
	FolderDrafts:  1,
	FolderSent:    2,
	FolderArchive: 3,
	FolderJunk:    4,
	FolderTrash:   5,
	FolderCustom:  6,
}

func rankOf(t FolderType) int {
	if r, ok := folderRank[t]; ok {
		return r
	}
	return len(folderRank)
}

// SortFolders orders folders by type priority, then name.
func SortFolders(folders []Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		ri, rj := rankOf(folders[i].Type), rankOf(folders[j].Type)
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(folders[i].Name) < strings.ToLower(folders[j].Name)
	})
}

// SortLabels orders labels by name, case-insensitively, so list ordering
// never flickers across patches.
func SortLabels(labels []Label) {
	sort.SliceStable(labels, func(i, j int) bool {
		return strings.ToLower(labels[i].Name) < strings.ToLower(labels[j].Name)
	})
}

// SortViews orders views by their user-arranged sort order.
func SortViews(views []View) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].SortOrder < views[j].SortOrder
	})
}

// SortSwimlanes orders a view's swimlanes by sort order.
func SortSwimlanes(lanes []Swimlane) {
	sort.SliceStable(lanes, func(i, j int) bool {
		return lanes[i].SortOrder < lanes[j].SortOrder
	})
}

// SortConversations orders newest-first.
func SortConversations(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LatestAt.After(convs[j].LatestAt)
	})
}

// SortContacts orders contacts by name, case-insensitively.
func SortContacts(contacts []Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		return strings.ToLower(contacts[i].Name) < strings.ToLower(contacts[j].Name)
	})
}
