package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/corvusmail/corvus/internal/bridge"
	"github.com/corvusmail/corvus/internal/models"
	"github.com/corvusmail/corvus/internal/query"
)

func foldersKey(accountID string) string {
	return query.Key("folders", map[string]any{"account_id": accountID})
}

// FolderServiceImpl implements FolderService
type FolderServiceImpl struct {
	bridge *bridge.Bridge
	cache  *query.Cache
}

// NewFolderService creates a new folder service
func NewFolderService(b *bridge.Bridge, cache *query.Cache) *FolderServiceImpl {
	return &FolderServiceImpl{bridge: b, cache: cache}
}

func (s *FolderServiceImpl) ListByAccount(ctx context.Context, accountID string) ([]models.Folder, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	v, err := s.cache.Get(ctx, foldersKey(accountID), func(ctx context.Context) (any, error) {
		var folders []models.Folder
		if err := s.bridge.Call(ctx, "get_folders", map[string]any{"account_id": accountID}, &folders); err != nil {
			return nil, fmt.Errorf("failed to list folders: %w", err)
		}
		models.SortFolders(folders)
		return folders, nil
	})
	if err != nil {
		return nil, err
	}
	folders, _ := v.([]models.Folder)
	return folders, nil
}

func (s *FolderServiceImpl) Create(ctx context.Context, accountID, parentID, name string) (*models.Folder, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("folder name cannot be empty")
	}

	key := foldersKey(accountID)
	temp := models.Folder{
		ID:        "temp-" + uuid.NewString(),
		AccountID: accountID,
		ParentID:  parentID,
		Name:      name,
		Type:      models.FolderCustom,
	}

	tx := s.cache.Begin(key)
	s.cache.Patch(key, func(current any) any {
		folders, _ := current.([]models.Folder)
		next := make([]models.Folder, 0, len(folders)+1)
		next = append(next, folders...)
		next = append(next, temp)
		models.SortFolders(next)
		return next
	})

	var created models.Folder
	args := map[string]any{"account_id": accountID, "parent_id": parentID, "name": name}
	if err := s.bridge.Call(ctx, "create_folder", args, &created); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	tx.Commit()

	s.cache.Patch(key, func(current any) any {
		folders, _ := current.([]models.Folder)
		next := make([]models.Folder, 0, len(folders))
		for _, f := range folders {
			if f.ID == temp.ID {
				next = append(next, created)
				continue
			}
			next = append(next, f)
		}
		models.SortFolders(next)
		return next
	})
	return &created, nil
}

func (s *FolderServiceImpl) Rename(ctx context.Context, folderID, newName string) (*models.Folder, error) {
	if strings.TrimSpace(folderID) == "" || strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("folderID and newName cannot be empty")
	}
	var updated models.Folder
	args := map[string]any{"id": folderID, "name": newName}
	if err := s.bridge.Call(ctx, "rename_folder", args, &updated); err != nil {
		return nil, fmt.Errorf("failed to rename folder: %w", err)
	}
	key := foldersKey(updated.AccountID)
	s.cache.Patch(key, func(current any) any {
		folders, _ := current.([]models.Folder)
		next := make([]models.Folder, 0, len(folders))
		for _, f := range folders {
			if f.ID == folderID {
				next = append(next, updated)
				continue
			}
			next = append(next, f)
		}
		models.SortFolders(next)
		return next
	})
	return &updated, nil
}

// Move reparents a folder. parentID may be empty to move the folder to the
// top level of its account.
func (s *FolderServiceImpl) Move(ctx context.Context, folderID, parentID string) (*models.Folder, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, fmt.Errorf("folder ID cannot be empty")
	}
	var moved models.Folder
	args := map[string]any{"id": folderID, "parent_id": parentID}
	if err := s.bridge.Call(ctx, "move_folder", args, &moved); err != nil {
		return nil, fmt.Errorf("failed to move folder: %w", err)
	}
	key := foldersKey(moved.AccountID)
	s.cache.Patch(key, func(current any) any {
		folders, _ := current.([]models.Folder)
		next := make([]models.Folder, 0, len(folders))
		for _, f := range folders {
			if f.ID == folderID {
				next = append(next, moved)
				continue
			}
			next = append(next, f)
		}
		models.SortFolders(next)
		return next
	})
	return &moved, nil
}

func (s *FolderServiceImpl) Delete(ctx context.Context, folderID string) error {
	if strings.TrimSpace(folderID) == "" {
		return fmt.Errorf("folder ID cannot be empty")
	}
	if err := s.bridge.Call(ctx, "delete_folder", map[string]any{"id": folderID}, nil); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	// The folder:deleted event invalidates every folder list; nothing to
	// patch eagerly because the account is not known from the ID alone.
	return nil
}
