// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/olegiv/menu-cleaner/internal/model"
)

// DemoMenuSlug identifies the seeded demo menu.
const DemoMenuSlug = "demo-navigation"

// demoFillerItems is the number of plain custom links added so that
// count-mode runs span several batches.
const demoFillerItems = 24

// demoItem describes one seeded menu item. Parent refers to the key of
// another demoItem seeded earlier.
type demoItem struct {
	key      string
	title    string
	itemType string
	object   string
	// objectKey refers to a post or term in the seeded content maps.
	objectKey string
	url       string
	target    string
	classes   string
	parent    string
}

type demoPost struct {
	key      string
	title    string
	postType string
	status   string
	// deleted posts are created then removed so their menu items are orphaned.
	deleted bool
}

type demoTerm struct {
	key      string
	name     string
	taxonomy string
	deleted  bool
}

var demoPosts = []demoPost{
	{key: "home", title: "Home", postType: "page", status: "publish"},
	{key: "about", title: "About Us", postType: "page", status: "publish"},
	{key: "team", title: "Our Team", postType: "page", status: "publish"},
	{key: "history", title: "Company History", postType: "page", status: "draft"},
	{key: "pricing", title: "Pricing", postType: "page", status: "pending"},
	{key: "launch", title: "Launch Announcement", postType: "post", status: "auto-draft"},
	{key: "promo", title: "Spring Promo", postType: "page", status: "publish", deleted: true},
	{key: "careers", title: "Careers", postType: "page", status: "publish", deleted: true},
}

var demoTerms = []demoTerm{
	{key: "news", name: "News", taxonomy: "category"},
	{key: "legacy", name: "Legacy", taxonomy: "post_tag", deleted: true},
}

var demoItems = []demoItem{
	{key: "home", title: "", itemType: model.ItemTypePostType, object: "page", objectKey: "home"},
	{key: "about", title: "About", itemType: model.ItemTypePostType, object: "page", objectKey: "about"},
	{key: "team", title: "", itemType: model.ItemTypePostType, object: "page", objectKey: "team", parent: "about"},
	{key: "history", title: "", itemType: model.ItemTypePostType, object: "page", objectKey: "history", parent: "about"},
	{key: "press", title: "Press Kit", itemType: model.ItemTypeCustom, url: "https://example.com/press", parent: "team"},
	{key: "pricing", title: "", itemType: model.ItemTypePostType, object: "page", objectKey: "pricing"},
	{key: "launch", title: "Launch", itemType: model.ItemTypePostType, object: "post", objectKey: "launch"},
	{key: "promo", title: "Spring Promo", itemType: model.ItemTypePostType, object: "page", objectKey: "promo"},
	{key: "careers", title: "", itemType: model.ItemTypePostType, object: "page", objectKey: "careers"},
	{key: "news", title: "", itemType: model.ItemTypeTaxonomy, object: "category", objectKey: "news"},
	{key: "legacy", title: "Legacy Tag", itemType: model.ItemTypeTaxonomy, object: "post_tag", objectKey: "legacy"},
	{key: "github", title: "GitHub", itemType: model.ItemTypeCustom, url: "https://github.com/", target: model.TargetBlank, classes: "external icon-github"},
}

// SeedDemo creates a demo menu containing nested, draft-linked, orphaned,
// taxonomy and custom items. It does nothing if the demo menu already exists.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	menus, err := queries.ListMenusWithItemCount(ctx)
	if err != nil {
		return fmt.Errorf("listing menus: %w", err)
	}
	for _, m := range menus {
		if m.Slug == DemoMenuSlug {
			slog.Info("demo menu already exists, skipping")
			return nil
		}
	}

	slog.Info("seeding demo menu")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := queries.WithTx(tx)

	now := time.Now().UTC()
	menu, err := qtx.CreateMenu(ctx, CreateMenuParams{
		Name:      "Demo Navigation",
		Slug:      DemoMenuSlug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating demo menu: %w", err)
	}

	objectIDs, err := seedDemoObjects(ctx, qtx, now)
	if err != nil {
		return err
	}

	itemIDs := make(map[string]int64, len(demoItems))
	position := int64(1)
	for _, it := range demoItems {
		id, err := seedDemoItem(ctx, qtx, menu.ID, position, now, it, objectIDs, itemIDs)
		if err != nil {
			return fmt.Errorf("seeding item %q: %w", it.key, err)
		}
		itemIDs[it.key] = id
		position++
	}
	for i := 1; i <= demoFillerItems; i++ {
		it := demoItem{
			key:      "link-" + strconv.Itoa(i),
			title:    fmt.Sprintf("Quick Link %d", i),
			itemType: model.ItemTypeCustom,
			url:      fmt.Sprintf("https://example.com/links/%d", i),
		}
		if _, err := seedDemoItem(ctx, qtx, menu.ID, position, now, it, objectIDs, itemIDs); err != nil {
			return fmt.Errorf("seeding item %q: %w", it.key, err)
		}
		position++
	}

	if err := removeDeletedDemoObjects(ctx, qtx, objectIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing demo menu: %w", err)
	}

	slog.Info("demo menu seeded", "menu_id", menu.ID, "items", len(demoItems)+demoFillerItems)
	return nil
}

func seedDemoObjects(ctx context.Context, q *Queries, now time.Time) (map[string]int64, error) {
	ids := make(map[string]int64, len(demoPosts)+len(demoTerms))
	for _, p := range demoPosts {
		post, err := q.CreatePost(ctx, CreatePostParams{
			Title:     p.title,
			PostType:  p.postType,
			Status:    p.status,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating post %q: %w", p.key, err)
		}
		ids[p.key] = post.ID
	}
	for _, tm := range demoTerms {
		term, err := q.CreateTerm(ctx, CreateTermParams{
			Name:      tm.name,
			Taxonomy:  tm.taxonomy,
			CreatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating term %q: %w", tm.key, err)
		}
		ids[tm.key] = term.ID
	}
	return ids, nil
}

func removeDeletedDemoObjects(ctx context.Context, q *Queries, ids map[string]int64) error {
	for _, p := range demoPosts {
		if p.deleted {
			if err := q.DeletePost(ctx, ids[p.key]); err != nil {
				return fmt.Errorf("deleting post %q: %w", p.key, err)
			}
		}
	}
	for _, tm := range demoTerms {
		if tm.deleted {
			if err := q.DeleteTerm(ctx, ids[tm.key]); err != nil {
				return fmt.Errorf("deleting term %q: %w", tm.key, err)
			}
		}
	}
	return nil
}

func seedDemoItem(ctx context.Context, q *Queries, menuID, position int64, now time.Time, it demoItem, objectIDs, itemIDs map[string]int64) (int64, error) {
	item, err := q.CreateMenuItem(ctx, CreateMenuItemParams{
		MenuID:    sql.NullInt64{Int64: menuID, Valid: true},
		Title:     it.title,
		Status:    "publish",
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return 0, err
	}

	objectID := ""
	if it.objectKey != "" {
		objectID = strconv.FormatInt(objectIDs[it.objectKey], 10)
	}
	parent := "0"
	if it.parent != "" {
		parent = strconv.FormatInt(itemIDs[it.parent], 10)
	}

	meta := [][2]string{
		{model.MetaItemType, it.itemType},
		{model.MetaItemObject, it.object},
		{model.MetaItemObjectID, objectID},
		{model.MetaItemParent, parent},
		{model.MetaItemURL, it.url},
		{model.MetaItemTarget, it.target},
		{model.MetaItemClasses, it.classes},
		{model.MetaItemXFN, ""},
	}
	for _, kv := range meta {
		if err := q.AddMenuItemMeta(ctx, AddMenuItemMetaParams{ItemID: item.ID, MetaKey: kv[0], MetaValue: kv[1]}); err != nil {
			return 0, fmt.Errorf("adding meta %s: %w", kv[0], err)
		}
	}
	return item.ID, nil
}
