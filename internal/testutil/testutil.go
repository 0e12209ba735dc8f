// Package testutil holds helpers shared by the package tests
package testutil

import (
	"bitwise74/bboard/db"
	"bitwise74/bboard/internal/model"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB opens a migrated in-memory sqlite database private to the test
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	conn, err := gorm.Open(db.SQLite(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)

	// A single connection keeps the shared cache database alive and avoids
	// sqlite lock errors
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

// Account stores an account with a dummy password hash
func Account(t testing.TB, conn *gorm.DB, username string, active bool) *model.Account {
	t.Helper()

	acc := &model.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		IsActive:     active,
		IsActivated:  active,
		SendMessages: true,
	}

	require.NoError(t, conn.Create(acc).Error)
	return acc
}

// Rubrics stores one super-rubric with one sub-rubric under it
func Rubrics(t testing.TB, conn *gorm.DB) (super, sub *model.Rubric) {
	t.Helper()

	super = &model.Rubric{Name: "Realty", Order: 1}
	require.NoError(t, conn.Create(super).Error)

	sub = &model.Rubric{Name: "Flats", Order: 1, SuperRubricID: &super.ID}
	require.NoError(t, conn.Create(sub).Error)

	return super, sub
}

func Listing(t testing.TB, conn *gorm.DB, author *model.Account, rubricID uint, title, content string, active bool) *model.Listing {
	t.Helper()

	l := &model.Listing{
		RubricID: rubricID,
		Title:    title,
		Content:  content,
		Price:    100,
		Contacts: "phone",
		AuthorID: author.ID,
		IsActive: active,
	}

	require.NoError(t, conn.Create(l).Error)
	return l
}

// PNG returns a valid 1x1 png image
func PNG(t testing.TB) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

// FileHeader builds a multipart file header the way a parsed request would
// carry it
func FileHeader(t testing.TB, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(h)
	require.NoError(t, err)

	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["images"][0]
}

var ErrStoreFailure = errors.New("store failure")

// MemStore is an image store kept in memory. Setting FailAfter to n > 0 makes
// every Put after the first n-1 fail.
type MemStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	puts      int
	FailAfter int
}

func NewMemStore() *MemStore {
	return &MemStore{objects: map[string][]byte{}}
}

func (m *MemStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.FailAfter > 0 && m.puts >= m.FailAfter {
		return ErrStoreFailure
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.objects[key] = data
	return nil
}

func (m *MemStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.objects, k)
	}

	return nil
}

func (m *MemStore) URL(key string) string {
	return "http://media.test/" + key
}

// Keys lists the stored keys in order
func (m *MemStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
