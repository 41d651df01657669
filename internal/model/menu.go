// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "strings"

// Menu item types.
const (
	ItemTypeCustom   = "custom"
	ItemTypePostType = "post_type"
	ItemTypeTaxonomy = "taxonomy"
)

// Navigation meta keys stored in menu_item_meta.
const (
	MetaItemType     = "_menu_item_type"
	MetaItemObject   = "_menu_item_object"
	MetaItemObjectID = "_menu_item_object_id"
	MetaItemParent   = "_menu_item_menu_item_parent"
	MetaItemURL      = "_menu_item_url"
	MetaItemTarget   = "_menu_item_target"
	MetaItemClasses  = "_menu_item_classes"
	MetaItemXFN      = "_menu_item_xfn"
)

// Linked object statuses treated as unpublished.
var DraftStatuses = []string{"draft", "pending", "auto-draft"}

// Link target values.
const (
	TargetSelf  = ""
	TargetBlank = "_blank"
)

// IsDraftStatus reports whether a linked object status counts as a draft.
func IsDraftStatus(status string) bool {
	for _, s := range DraftStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsLinkedType reports whether items of this type point at a content object.
func IsLinkedType(itemType string) bool {
	return itemType == ItemTypePostType || itemType == ItemTypeTaxonomy
}

// SplitClasses splits a stored classes value into individual class names.
func SplitClasses(v string) []string {
	return strings.Fields(v)
}

// JoinClasses joins class names into the stored classes value.
func JoinClasses(classes []string) string {
	return strings.Join(classes, " ")
}
