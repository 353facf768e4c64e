package report

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cleaning-session-backend/config"
	"cleaning-session-backend/internal/model"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type properties map[string]model.PropertySnapshot

func (p properties) Property(id string) (model.PropertySnapshot, bool) {
	snap, ok := p[id]
	return snap, ok
}

type recordingDispatcher struct{ ids []string }

func (d *recordingDispatcher) Dispatch(id string) { d.ids = append(d.ids, id) }

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingDispatcher) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Report{}, &model.ReportPhoto{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	d := &recordingDispatcher{}
	svc := NewService(db, config.ReportsConfig{
		UploadDir:     t.TempDir(),
		MaxPhotoBytes: 1024,
		MaxPhotos:     2,
	}, properties{"p1": {ID: "p1", Name: "Harbour View"}}, d)
	return svc, db, d
}

func TestCreate_StoresPhotosAndDispatches(t *testing.T) {
	svc, _, d := newTestService(t)
	ctx := context.Background()

	rep, err := svc.Create(ctx, NewReport{
		Kind:        model.ReportMaintenance,
		PropertyID:  "p1",
		CleanerID:   "c1",
		Description: "  Leaking tap in bathroom ",
	}, []Photo{{FileName: "../../tap.png", Data: pngHeader}})
	require.NoError(t, err)

	assert.Equal(t, "Leaking tap in bathroom", rep.Description)
	assert.Equal(t, model.SyncPending, rep.SyncStatus)
	require.Len(t, rep.Photos, 1)
	assert.Equal(t, "tap.png", rep.Photos[0].FileName)
	assert.Equal(t, "image/png", rep.Photos[0].ContentType)

	data, err := os.ReadFile(rep.Photos[0].Path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, []string{rep.ID}, d.ids)

	got, err := svc.Get(ctx, rep.ID)
	require.NoError(t, err)
	assert.Len(t, got.Photos, 1)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, d := newTestService(t)

	valid := NewReport{Kind: model.ReportLostProperty, PropertyID: "p1", CleanerID: "c1", Description: "Phone charger"}
	testCases := []struct {
		name   string
		mutate func(r *NewReport)
		photos []Photo
	}{
		{"unknown kind", func(r *NewReport) { r.Kind = "complaint" }, nil},
		{"unknown property", func(r *NewReport) { r.PropertyID = "p9" }, nil},
		{"missing cleaner", func(r *NewReport) { r.CleanerID = "" }, nil},
		{"blank description", func(r *NewReport) { r.Description = "   " }, nil},
		{"too many photos", nil, []Photo{{Data: pngHeader}, {Data: pngHeader}, {Data: pngHeader}}},
		{"photo too large", nil, []Photo{{Data: append(append([]byte{}, pngHeader...), make([]byte, 2048)...)}}},
		{"not an image", nil, []Photo{{FileName: "notes.txt", Data: []byte("hello")}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			if tc.mutate != nil {
				tc.mutate(&in)
			}
			_, err := svc.Create(context.Background(), in, tc.photos)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
	assert.Empty(t, d.ids)
}

func TestList(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, pid := range []string{"p1", "p2", "p1"} {
		require.NoError(t, db.Create(&model.Report{
			ID:          fmt.Sprintf("r%d", i),
			Kind:        model.ReportLostProperty,
			PropertyID:  pid,
			CleanerID:   "c1",
			Description: "item",
			SyncStatus:  model.SyncSynced,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r2", all[0].ID)

	p1, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, "r2", p1[0].ID)
	assert.Equal(t, "r0", p1[1].ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
