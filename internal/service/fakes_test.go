package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/altdirectory/internal/apperror"
	"github.com/sakif/altdirectory/internal/model"
	"github.com/sakif/altdirectory/internal/repository"
)

// =========================================================================
// FAKE REPOSITORY
// =========================================================================
//
// fakeRepo keeps every table in maps and implements all the repository
// interfaces, so one value can back every service under test. It follows
// the storage conventions: Find returns (nil, nil) when absent, Update and
// Delete return NotFound on a missing row.

type fakeRepo struct {
	mu     sync.Mutex
	nextID int

	categories   map[string]*model.Category
	alternatives map[string]*model.Alternative
	tools        map[string]*model.Tool
	images       map[string]*model.Image
	accounts     map[string]*model.Account // by user id
	likes        map[[2]string]*model.Like // account id, tool id
	links        map[[2]string]bool        // alternative id, tool id

	// failWith makes every call fail, to simulate a broken database.
	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		categories:   map[string]*model.Category{},
		alternatives: map[string]*model.Alternative{},
		tools:        map[string]*model.Tool{},
		images:       map[string]*model.Image{},
		accounts:     map[string]*model.Account{},
		likes:        map[[2]string]*model.Like{},
		links:        map[[2]string]bool{},
	}
}

func (f *fakeRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// page slices items the way the sqlite implementation does: total is the
// unfiltered count.
func page[T any](items []T, opts repository.ListOptions, match func(T) bool) *model.Page[T] {
	total := len(items)
	filtered := []T{}
	for _, it := range items {
		if opts.Query == "" || match(it) {
			filtered = append(filtered, it)
		}
	}
	start := min(opts.Offset(), len(filtered))
	end := min(start+opts.Limit, len(filtered))
	return &model.Page[T]{Data: filtered[start:end], Total: total, Page: opts.Page, PageSize: opts.Limit}
}

func contains(s *string, q string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), strings.ToLower(q))
}

// ---- categories ----

func (f *fakeRepo) CreateCategory(_ context.Context, in model.NewCategory) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, c := range f.categories {
		if c.Slug == in.Slug {
			return nil, apperror.Conflict("Category", "slug", in.Slug)
		}
	}
	c := &model.Category{ID: f.id("cat"), Name: in.Name, Slug: in.Slug, Label: in.Label, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.categories[c.ID] = c
	out := *c
	return &out, nil
}

func (f *fakeRepo) FindCategory(_ context.Context, id string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (f *fakeRepo) ListCategories(_ context.Context, opts repository.ListOptions) (*model.Page[model.Category], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	items := []model.Category{}
	for _, c := range f.categories {
		items = append(items, *c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, opts, func(c model.Category) bool {
		return contains(&c.Name, opts.Query) || contains(c.Label, opts.Query)
	}), nil
}

func (f *fakeRepo) UpdateCategory(_ context.Context, id string, p model.CategoryPatch) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, apperror.NotFound("Category", "id", id)
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Slug != nil {
		c.Slug = *p.Slug
	}
	if p.Label != nil {
		c.Label = p.Label
	}
	out := *c
	return &out, nil
}

func (f *fakeRepo) DeleteCategory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return apperror.NotFound("Category", "id", id)
	}
	delete(f.categories, id)
	return nil
}

// ---- alternatives ----

func (f *fakeRepo) CreateAlternative(_ context.Context, in model.NewAlternative) (*model.Alternative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alternatives {
		if a.Slug == in.Slug {
			return nil, apperror.Conflict("Alternative", "slug", in.Slug)
		}
	}
	a := &model.Alternative{ID: f.id("alt"), Name: in.Name, Slug: in.Slug, WebsiteURL: in.WebsiteURL, Description: in.Description}
	f.alternatives[a.ID] = a
	out := *a
	return &out, nil
}

func (f *fakeRepo) FindAlternative(_ context.Context, id string) (*model.Alternative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alternatives[id]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) ListAlternatives(_ context.Context, opts repository.ListOptions) (*model.Page[model.Alternative], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []model.Alternative{}
	for _, a := range f.alternatives {
		items = append(items, *a)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, opts, func(a model.Alternative) bool {
		return contains(&a.Name, opts.Query) || contains(a.Description, opts.Query)
	}), nil
}

func (f *fakeRepo) UpdateAlternative(_ context.Context, id string, p model.AlternativePatch) (*model.Alternative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alternatives[id]
	if !ok {
		return nil, apperror.NotFound("Alternative", "id", id)
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) DeleteAlternative(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alternatives[id]; !ok {
		return apperror.NotFound("Alternative", "id", id)
	}
	delete(f.alternatives, id)
	for k := range f.links {
		if k[0] == id {
			delete(f.links, k)
		}
	}
	return nil
}

func (f *fakeRepo) ListAlternativeTools(_ context.Context, alternativeID string, opts repository.ListOptions) (*model.Page[model.Tool], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []model.Tool{}
	for k := range f.links {
		if k[0] == alternativeID {
			items = append(items, *f.tools[k[1]])
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, opts, func(t model.Tool) bool { return contains(&t.Name, opts.Query) }), nil
}

// ---- tools ----

func (f *fakeRepo) CreateTool(_ context.Context, in model.NewTool) (*model.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tools {
		if t.Slug == in.Slug {
			return nil, apperror.Conflict("Tool", "slug", in.Slug)
		}
	}
	if in.AlternativeID != nil {
		if _, ok := f.alternatives[*in.AlternativeID]; !ok {
			return nil, apperror.ValidationFailed("alternativeId", "referenced record does not exist")
		}
	}
	now := time.Now()
	t := &model.Tool{
		ID: f.id("tool"), Name: in.Name, Slug: in.Slug, WebsiteURL: in.WebsiteURL,
		Description: in.Description, Tagline: in.Tagline, CategoryID: in.CategoryID,
		AccountID: in.AccountID, CreatedAt: now, UpdatedAt: now,
	}
	f.tools[t.ID] = t
	if in.AlternativeID != nil {
		f.links[[2]string{*in.AlternativeID, t.ID}] = true
	}
	out := *t
	return &out, nil
}

func (f *fakeRepo) findTool(match func(*model.Tool) bool) (*model.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, t := range f.tools {
		if match(t) {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindTool(_ context.Context, id string) (*model.Tool, error) {
	return f.findTool(func(t *model.Tool) bool { return t.ID == id })
}

func (f *fakeRepo) FindToolBySlug(_ context.Context, slug string) (*model.Tool, error) {
	return f.findTool(func(t *model.Tool) bool { return t.Slug == slug })
}

func (f *fakeRepo) ListTools(_ context.Context, opts repository.ListOptions) (*model.Page[model.Tool], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []model.Tool{}
	for _, t := range f.tools {
		items = append(items, *t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, opts, func(t model.Tool) bool {
		return contains(&t.Name, opts.Query) || contains(t.Description, opts.Query)
	}), nil
}

func (f *fakeRepo) UpdateTool(_ context.Context, id string, p model.ToolPatch) (*model.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tools[id]
	if !ok {
		return nil, apperror.NotFound("Tool", "id", id)
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.PageViews != nil {
		t.PageViews = *p.PageViews
	}
	t.UpdatedAt = time.Now()
	out := *t
	return &out, nil
}

func (f *fakeRepo) DeleteTool(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tools[id]; !ok {
		return apperror.NotFound("Tool", "id", id)
	}
	delete(f.tools, id)
	return nil
}

func (f *fakeRepo) ListToolAlternatives(_ context.Context, toolID string) ([]model.Alternative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Alternative{}
	for k := range f.links {
		if k[1] == toolID {
			out = append(out, *f.alternatives[k[0]])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) ListSitemapTools(_ context.Context) ([]model.Tool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Tool{}
	for _, t := range f.tools {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- links ----

func (f *fakeRepo) LinkTool(_ context.Context, alternativeID, toolID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alternatives[alternativeID]; !ok {
		return apperror.NotFound("Alternative", "id", alternativeID)
	}
	if _, ok := f.tools[toolID]; !ok {
		return apperror.NotFound("Tool", "id", toolID)
	}
	f.links[[2]string{alternativeID, toolID}] = true
	return nil
}

func (f *fakeRepo) UnlinkTool(_ context.Context, alternativeID, toolID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := [2]string{alternativeID, toolID}
	if !f.links[k] {
		return apperror.NotFound("Link", "id", alternativeID+"/"+toolID)
	}
	delete(f.links, k)
	return nil
}

// ---- images ----

func (f *fakeRepo) CreateImage(_ context.Context, in model.NewImage) (*model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, img := range f.images {
		if img.URL == in.URL {
			return nil, apperror.Conflict("Image", "url", in.URL)
		}
	}
	img := &model.Image{
		ID: f.id("img"), URL: in.URL, ThumbnailURL: in.ThumbnailURL, FileID: in.FileID,
		Filename: in.Filename, OriginalName: in.OriginalName, Size: in.Size, MimeType: in.MimeType,
	}
	f.images[img.ID] = img
	out := *img
	return &out, nil
}

func (f *fakeRepo) FindImage(_ context.Context, id string) (*model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return nil, nil
	}
	out := *img
	return &out, nil
}

func (f *fakeRepo) ListImages(_ context.Context, opts repository.ListOptions) (*model.Page[model.Image], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []model.Image{}
	for _, img := range f.images {
		items = append(items, *img)
	}
	return page(items, opts, func(img model.Image) bool {
		return contains(img.OriginalName, opts.Query) || contains(img.Filename, opts.Query)
	}), nil
}

func (f *fakeRepo) UpdateImage(_ context.Context, id string, p model.ImagePatch) (*model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return nil, apperror.NotFound("Image", "id", id)
	}
	if p.URL != nil {
		img.URL = *p.URL
	}
	out := *img
	return &out, nil
}

func (f *fakeRepo) DeleteImage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.images[id]; !ok {
		return apperror.NotFound("Image", "id", id)
	}
	delete(f.images, id)
	return nil
}

// ---- accounts ----

func (f *fakeRepo) CreateAccount(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[a.UserID]; ok {
		return apperror.Conflict("Account", "userId", a.UserID)
	}
	a.ID = f.id("acct")
	if a.Role == "" {
		a.Role = model.RoleUser
	}
	stored := *a
	f.accounts[a.UserID] = &stored
	return nil
}

func (f *fakeRepo) FindAccount(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindAccountByUserID(_ context.Context, userID string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	a, ok := f.accounts[userID]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) UpdateAccountByUserID(_ context.Context, userID string, p model.AccountPatch) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[userID]
	if !ok {
		return nil, apperror.NotFound("User", "id", userID)
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Image != nil {
		a.Image = p.Image
	}
	if p.Role != nil {
		a.Role = *p.Role
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) SetAccountRole(ctx context.Context, userID, role string) (*model.Account, error) {
	return f.UpdateAccountByUserID(ctx, userID, model.AccountPatch{Role: &role})
}

func (f *fakeRepo) UpsertAccount(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if existing, ok := f.accounts[a.UserID]; ok {
		existing.Name, existing.Email, existing.Image = a.Name, a.Email, a.Image
		*a = *existing
		return nil
	}
	a.ID = f.id("acct")
	a.Role = model.RoleUser
	stored := *a
	f.accounts[a.UserID] = &stored
	return nil
}

// ---- likes ----

func (f *fakeRepo) LikeTool(_ context.Context, accountID, toolID string) (*model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tools[toolID]; !ok {
		return nil, apperror.NotFound("Tool", "id", toolID)
	}
	k := [2]string{accountID, toolID}
	if _, ok := f.likes[k]; ok {
		return nil, apperror.Conflict("Like", "toolId", toolID)
	}
	l := &model.Like{ID: f.id("like"), AccountID: accountID, ToolID: toolID}
	f.likes[k] = l
	out := *l
	return &out, nil
}

func (f *fakeRepo) UnlikeTool(_ context.Context, accountID, toolID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := [2]string{accountID, toolID}
	if _, ok := f.likes[k]; !ok {
		return apperror.NotFound("Like", "toolId", toolID)
	}
	delete(f.likes, k)
	return nil
}

func (f *fakeRepo) CountToolLikes(_ context.Context, toolID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.likes {
		if k[1] == toolID {
			n++
		}
	}
	return n, nil
}

// =========================================================================
// FAKE OBJECT STORE
// =========================================================================

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
	delErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: got %d bytes, declared %d", len(data), size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStore) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
