// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"github.com/jeranaias/readmark/internal/model"
)

// =============================================================================
// HISTORY ITEM LIST
// =============================================================================

// historyItemsData is the on-disk shape of history_items.json: an ordered
// list, newest first.
type historyItemsData struct {
	Items []model.HistoryItem `json:"items"`
}

func (s *Store) loadHistoryItems() historyItemsData {
	var h historyItemsData
	s.readDocument(historyItemsFile, &h)
	return h
}

// SaveHistoryItem inserts an item at the head of the list. The list is
// capped at MaxHistoryItems; the oldest entries fall off the tail.
func (s *Store) SaveHistoryItem(item model.HistoryItem) bool {
	h := s.loadHistoryItems()
	h.Items = append([]model.HistoryItem{item}, h.Items...)
	if len(h.Items) > MaxHistoryItems {
		h.Items = h.Items[:MaxHistoryItems]
	}
	return s.writeDocument(historyItemsFile, h, 0644)
}

// GetHistoryList returns the history items, newest first.
func (s *Store) GetHistoryList() []model.HistoryItem {
	return s.loadHistoryItems().Items
}

// DeleteHistoryItem removes the item with the given id. Returns false when
// no such item exists or the write fails.
func (s *Store) DeleteHistoryItem(id string) bool {
	h := s.loadHistoryItems()

	kept := h.Items[:0:0]
	found := false
	for _, item := range h.Items {
		if item.ID == id {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return false
	}

	h.Items = kept
	return s.writeDocument(historyItemsFile, h, 0644)
}

// ClearAllHistory removes every history item.
func (s *Store) ClearAllHistory() bool {
	return s.writeDocument(historyItemsFile, historyItemsData{Items: []model.HistoryItem{}}, 0644)
}
