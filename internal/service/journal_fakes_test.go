package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tankermike11/staycation-journal/internal/models"
	"github.com/tankermike11/staycation-journal/pkg/media"
	"github.com/tankermike11/staycation-journal/pkg/storage"
)

type memObjectStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failPut    map[string]error
	failDelete map[string]error
	failGet    error
	deleted    []string
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{
		objects:    map[string][]byte{},
		failPut:    map[string]error{},
		failDelete: map[string]error{},
	}
}

func (m *memObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failPut[key]; err != nil {
		return err
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memObjectStore) Get(_ context.Context, key string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data)), ContentType: media.ContentType}, nil
}

func (m *memObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDelete[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjectStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memObjectStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// seed stores all three variants for img so purge and open have something to act on.
func (m *memObjectStore) seed(img models.Image) {
	for _, key := range img.StorageKeys() {
		m.objects[key] = []byte(key)
	}
}

// stubGenerator returns fixed bytes per variant and fails for raw input equal to "corrupt".
type stubGenerator struct {
	calls int
}

func (g *stubGenerator) Generate(raw []byte) ([]media.Derivative, error) {
	g.calls++
	if string(raw) == "corrupt" {
		return nil, fmt.Errorf("%w: test input", media.ErrUndecodable)
	}
	out := make([]media.Derivative, 0, len(media.Variants))
	for _, v := range media.Variants {
		out = append(out, media.Derivative{Variant: v, Data: []byte(string(v) + ":" + string(raw))})
	}
	return out, nil
}

func storedImage(id, dayID string, sortIndex int) models.Image {
	img := models.Image{
		ID:                 id,
		SortIndex:          sortIndex,
		StorageKeyOriginal: media.VariantOriginal.Key(id),
		StorageKeyWeb:      media.VariantWeb.Key(id),
		StorageKeyThumb:    media.VariantThumb.Key(id),
	}
	if dayID != "" {
		d := dayID
		img.DayID = &d
	}
	return img
}

type fakeDays struct {
	mu        sync.Mutex
	days      map[string]models.Day
	deleted   []string
	updateErr error
}

func newFakeDays(days ...models.Day) *fakeDays {
	f := &fakeDays{days: map[string]models.Day{}}
	for _, d := range days {
		f.days[d.ID] = d
	}
	return f
}

func (f *fakeDays) GetByID(_ context.Context, id string) (*models.Day, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.days[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (f *fakeDays) ListByEvent(_ context.Context, eventID string) ([]models.Day, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Day
	for _, d := range f.days {
		if d.EventID == eventID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortIndex < out[j].SortIndex })
	return out, nil
}

func (f *fakeDays) Update(_ context.Context, day *models.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.days[day.ID]; !ok {
		return sql.ErrNoRows
	}
	f.days[day.ID] = *day
	return nil
}

func (f *fakeDays) DeleteCascade(_ context.Context, dayID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.days[dayID]; !ok {
		return sql.ErrNoRows
	}
	delete(f.days, dayID)
	f.deleted = append(f.deleted, dayID)
	return nil
}

type fakeImages struct {
	mu        sync.Mutex
	images    map[string]models.Image
	days      *fakeDays
	createErr error
	deleteErr error
	swaps     [][2]string
}

func newFakeImages(days *fakeDays, images ...models.Image) *fakeImages {
	f := &fakeImages{images: map[string]models.Image{}, days: days}
	for _, img := range images {
		f.images[img.ID] = img
	}
	return f
}

func (f *fakeImages) Create(_ context.Context, img *models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.images[img.ID] = *img
	return nil
}

func (f *fakeImages) GetByID(_ context.Context, id string) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &img, nil
}

func (f *fakeImages) MaxSortIndex(ctx context.Context, dayID string) (int, error) {
	images, _ := f.ListByDay(ctx, dayID)
	maxIndex := 0
	for _, img := range images {
		maxIndex = max(maxIndex, img.SortIndex)
	}
	return maxIndex, nil
}

func (f *fakeImages) ListByDay(_ context.Context, dayID string) ([]models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Image
	for _, img := range f.images {
		if img.DayID != nil && *img.DayID == dayID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortIndex != out[j].SortIndex {
			return out[i].SortIndex < out[j].SortIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeImages) ListByEvent(ctx context.Context, eventID string) ([]models.Image, error) {
	days, _ := f.days.ListByEvent(ctx, eventID)
	var out []models.Image
	for _, d := range days {
		images, _ := f.ListByDay(ctx, d.ID)
		out = append(out, images...)
	}
	return out, nil
}

func (f *fakeImages) CountByEvent(ctx context.Context, eventID string) (int, error) {
	images, err := f.ListByEvent(ctx, eventID)
	return len(images), err
}

func (f *fakeImages) UpdateCaption(_ context.Context, id string, caption *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[id]
	if !ok {
		return sql.ErrNoRows
	}
	img.Caption = caption
	f.images[id] = img
	return nil
}

func (f *fakeImages) SwapSortIndex(_ context.Context, a, b models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ia, ib := f.images[a.ID], f.images[b.ID]
	ia.SortIndex, ib.SortIndex = b.SortIndex, a.SortIndex
	f.images[a.ID], f.images[b.ID] = ia, ib
	f.swaps = append(f.swaps, [2]string{a.ID, b.ID})
	return nil
}

func (f *fakeImages) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.images[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.images, id)
	return nil
}

type fakeEvents struct {
	mu            sync.Mutex
	events        map[string]models.Event
	createErr     error
	created       []models.Day
	createdHero   *models.Image
	updatedDays   []models.Day
	updateCalls   int
	cascadeCalls  int
	cascadeImages []string
	photos        func(ctx context.Context, eventID string) (int, error)
}

func newFakeEvents(events ...models.Event) *fakeEvents {
	f := &fakeEvents{events: map[string]models.Event{}}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) List(_ context.Context) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (f *fakeEvents) CreateWithHero(_ context.Context, event *models.Event, hero *models.Image, days []models.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	event.HeroImageID = &hero.ID
	f.events[event.ID] = *event
	f.created = days
	f.createdHero = hero
	return nil
}

func (f *fakeEvents) Update(ctx context.Context, event *models.Event, days []models.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if days != nil && f.photos != nil {
		count, err := f.photos(ctx, event.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return models.ErrEventHasPhotos
		}
	}
	f.events[event.ID] = *event
	f.updatedDays = days
	return nil
}

func (f *fakeEvents) DeleteCascade(_ context.Context, eventID string, imageIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cascadeCalls++
	f.cascadeImages = imageIDs
	delete(f.events, eventID)
	return nil
}

// recordingCache is a viewCache that counts invalidations.
type recordingCache struct {
	invalidations int
}

func (c *recordingCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (c *recordingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (c *recordingCache) InvalidateJournal(context.Context) { c.invalidations++ }

func fileFrom(name, content string) UploadFile {
	return UploadFile{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}
