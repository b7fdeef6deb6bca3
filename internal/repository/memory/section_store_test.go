package memory_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxdesk/internal/domain"
	"taxdesk/internal/repository/memory"
)

var (
	notesDesc = domain.SectionDescriptor{Kind: domain.KindNotes, Group: domain.GroupOtherData, Shape: domain.ShapeSingleton, YearScoped: true}
	loansDesc = domain.SectionDescriptor{Kind: domain.KindLoans, Group: domain.GroupLiabilitiesAndExpenses, Shape: domain.ShapeList, YearScoped: true}
)

func TestSectionStore_UpsertKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()
	key := domain.SectionKey{UserID: uuid.New(), TaxYear: "2024-25"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Upsert(ctx, notesDesc, key, json.RawMessage(`{"text":"x"}`))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := store.Find(ctx, notesDesc, key)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(20), records[0].Version)
}

func TestSectionStore_FindEmptyYearMatchesAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()
	userID := uuid.New()

	_, err := store.ReplaceAll(ctx, loansDesc, domain.SectionKey{UserID: userID, TaxYear: "2023-24"}, []json.RawMessage{[]byte(`{"a":1}`)})
	require.NoError(t, err)
	_, err = store.ReplaceAll(ctx, loansDesc, domain.SectionKey{UserID: userID, TaxYear: "2024-25"}, []json.RawMessage{[]byte(`{"a":2}`), []byte(`{"a":3}`)})
	require.NoError(t, err)

	all, err := store.Find(ctx, loansDesc, domain.SectionKey{UserID: userID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	year, err := store.Find(ctx, loansDesc, domain.SectionKey{UserID: userID, TaxYear: "2024-25"})
	require.NoError(t, err)
	require.Len(t, year, 2)
	assert.JSONEq(t, `{"a":2}`, string(year[0].Data), "records written together keep their order")
}

func TestSectionStore_CreateManyRejectsDuplicateSingleton(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()
	userID := uuid.New()

	_, err := store.Upsert(ctx, notesDesc, domain.SectionKey{UserID: userID, TaxYear: "2024-25"}, json.RawMessage(`{}`))
	require.NoError(t, err)

	_, err = store.CreateMany(ctx, notesDesc, []domain.SectionRecord{{UserID: userID, TaxYear: "2024-25", Data: json.RawMessage(`{}`)}})
	assert.ErrorIs(t, err, domain.ErrDuplicateSection)
}

func TestSectionStore_MergeData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()

	created, err := store.CreateMany(ctx, loansDesc, []domain.SectionRecord{
		{UserID: uuid.New(), Data: json.RawMessage(`{"lender":"HBL","amount":100}`)},
	})
	require.NoError(t, err)

	rec, err := store.MergeData(ctx, loansDesc, created[0].ID, json.RawMessage(`{"amount":250}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"lender":"HBL","amount":250}`, string(rec.Data))
	assert.Equal(t, int64(2), rec.Version)

	_, err = store.MergeData(ctx, notesDesc, created[0].ID, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrSectionNotFound, "id of another kind")

	_, err = store.MergeData(ctx, loansDesc, created[0].ID, json.RawMessage(`[1]`))
	assert.ErrorIs(t, err, domain.ErrSectionShapeMismatch)
}

func TestSectionStore_ReplaceDataChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()

	rec, err := store.Upsert(ctx, notesDesc, domain.SectionKey{UserID: uuid.New()}, json.RawMessage(`{"v":1}`))
	require.NoError(t, err)

	_, err = store.ReplaceData(ctx, notesDesc, rec.ID, rec.Version+1, json.RawMessage(`{"v":2}`))
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	updated, err := store.ReplaceData(ctx, notesDesc, rec.ID, rec.Version, json.RawMessage(`{"v":2}`))
	require.NoError(t, err)
	assert.Equal(t, rec.Version+1, updated.Version)
}

func TestSectionStore_DeleteAndCount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()
	userID := uuid.New()
	key := domain.SectionKey{UserID: userID, TaxYear: "2024-25"}

	created, err := store.ReplaceAll(ctx, loansDesc, key, []json.RawMessage{[]byte(`{}`), []byte(`{}`)})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, notesDesc, key, json.RawMessage(`{}`))
	require.NoError(t, err)

	counts, err := store.CountByKind(ctx, []domain.SectionDescriptor{loansDesc, notesDesc}, key)
	require.NoError(t, err)
	assert.Equal(t, map[domain.SectionKind]int{domain.KindLoans: 2, domain.KindNotes: 1}, counts)

	deleted, err := store.DeleteByIDs(ctx, loansDesc, []uuid.UUID{created[0].ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSectionStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSectionStore()

	rec, err := store.Upsert(ctx, notesDesc, domain.SectionKey{UserID: uuid.New()}, json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	rec.Data[2] = 'X'

	got, err := store.GetByID(ctx, notesDesc, rec.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(got.Data))
}
