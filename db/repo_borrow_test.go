package db

import (
	"Gin_postgres_redis_library/models"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestBorrowReturnLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u1 := mustUser(t, r, "u1")
	u2 := mustUser(t, r, "u2")
	x := mustBook(t, r, "1984", "X")
	require.True(t, x.Available)

	// U1 借 X
	rec, err := r.BorrowBook(ctx, u1.ID, x.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsOpen())
	assert.False(t, reloadBook(t, r, x.ID).Available)
	assert.EqualValues(t, 1, countOpen(t, r, x.ID))

	m1, err := r.FindMemberByUserID(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, m1.ID, rec.MemberID)

	// U2 再借 → Conflict，状态不变
	_, err = r.BorrowBook(ctx, u2.ID, x.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.False(t, reloadBook(t, r, x.ID).Available)
	assert.EqualValues(t, 1, countOpen(t, r, x.ID))

	// U1 归还
	closed, err := r.ReturnRecord(ctx, rec.ID, u1.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ReturnDate)
	assert.True(t, reloadBook(t, r, x.ID).Available)
	assert.EqualValues(t, 0, countOpen(t, r, x.ID))

	stored, err := r.FindRecordByID(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReturnDate)
	assert.False(t, stored.ReturnDate.Before(stored.BorrowDate))
	require.NotNil(t, stored.ReturnedBy)
	assert.Equal(t, u1.ID, *stored.ReturnedBy)

	// 不存在的记录
	_, err = r.ReturnRecord(ctx, 999, u1.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// 不存在的书
	_, err = r.BorrowBook(ctx, u1.ID, 999)
	require.ErrorIs(t, err, ErrNotFound)

	var total int64
	require.NoError(t, r.DB.Model(&models.BorrowRecord{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestBorrowProvisionsMemberOnce(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "newcomer")
	a := mustBook(t, r, "Animal Farm", "9780451526342")
	b := mustBook(t, r, "Homage to Catalonia", "9780156421171")

	_, err := r.FindMemberByUserID(ctx, u.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.BorrowBook(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = r.BorrowBook(ctx, u.ID, b.ID)
	require.NoError(t, err)

	var members []models.Member
	require.NoError(t, r.DB.Where("user_id = ?", u.ID).Find(&members).Error)
	require.Len(t, members, 1)
	assert.Empty(t, members[0].Phone)
	assert.Empty(t, members[0].Address)
}

func TestFailedBorrowLeavesNoMember(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	holder := mustUser(t, r, "holder")
	late := mustUser(t, r, "late")
	b := mustBook(t, r, "1984", "9780451524935")

	_, err := r.BorrowBook(ctx, holder.ID, b.ID)
	require.NoError(t, err)

	_, err = r.BorrowBook(ctx, late.ID, b.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = r.FindMemberByUserID(ctx, late.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturnIsScopedToOwner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner := mustUser(t, r, "owner")
	other := mustUser(t, r, "other")
	b := mustBook(t, r, "1984", "9780451524935")

	rec, err := r.BorrowBook(ctx, owner.ID, b.ID)
	require.NoError(t, err)

	// 另一个用户（无论是否已有 member）都看不到这条记录
	_, err = r.ReturnRecord(ctx, rec.ID, other.ID)
	require.ErrorIs(t, err, ErrNotFound)

	other2 := mustBook(t, r, "Animal Farm", "9780451526342")
	_, err = r.BorrowBook(ctx, other.ID, other2.ID)
	require.NoError(t, err)
	_, err = r.ReturnRecord(ctx, rec.ID, other.ID)
	require.ErrorIs(t, err, ErrNotFound)

	assert.False(t, reloadBook(t, r, b.ID).Available)
	assert.EqualValues(t, 1, countOpen(t, r, b.ID))
}

func TestReturnTwiceIsNotFound(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")
	b := mustBook(t, r, "1984", "9780451524935")

	rec, err := r.BorrowBook(ctx, u.ID, b.ID)
	require.NoError(t, err)
	_, err = r.ReturnRecord(ctx, rec.ID, u.ID)
	require.NoError(t, err)

	// 书被别人借走后，再次归还旧记录不能把书标记为可借
	u2 := mustUser(t, r, "bob")
	_, err = r.BorrowBook(ctx, u2.ID, b.ID)
	require.NoError(t, err)

	_, err = r.ReturnRecord(ctx, rec.ID, u.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, reloadBook(t, r, b.ID).Available)
}

func TestAdminReturnAnyRecord(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")
	admin := mustUser(t, r, "admin")
	b := mustBook(t, r, "1984", "9780451524935")

	rec, err := r.BorrowBook(ctx, u.ID, b.ID)
	require.NoError(t, err)

	closed, err := r.AdminReturnRecord(ctx, rec.ID, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ReturnedBy)
	assert.Equal(t, admin.ID, *closed.ReturnedBy)
	assert.True(t, reloadBook(t, r, b.ID).Available)

	_, err = r.AdminReturnRecord(ctx, rec.ID, admin.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentBorrowHasSingleWinner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	b := mustBook(t, r, "1984", "9780451524935")

	const n = 8
	users := make([]*models.User, n)
	for i := range users {
		users[i] = mustUser(t, r, "reader"+string(rune('a'+i)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, u := range users {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := r.BorrowBook(ctx, uid, b.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, ErrConflict):
				conflicts++
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
	assert.EqualValues(t, 1, countOpen(t, r, b.ID))
	assert.False(t, reloadBook(t, r, b.ID).Available)
}

func TestViewerAnnotations(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	held := mustBook(t, r, "1984", "9780451524935")
	free := mustBook(t, r, "Animal Farm", "9780451526342")

	rec, err := r.BorrowBook(ctx, alice.ID, held.ID)
	require.NoError(t, err)

	views, err := r.ListBooksForViewer(ctx, alice.ID, BooksQuery{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	byID := map[uint]BookView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.True(t, byID[held.ID].BorrowedByMe)
	require.NotNil(t, byID[held.ID].MyRecordID)
	assert.Equal(t, rec.ID, *byID[held.ID].MyRecordID)
	assert.False(t, byID[free.ID].BorrowedByMe)

	// bob 和匿名用户都看不到持有标记
	for _, viewer := range []string{bob.ID, ""} {
		v, err := r.BookForViewer(ctx, held.ID, viewer)
		require.NoError(t, err)
		assert.False(t, v.BorrowedByMe)
		assert.False(t, v.Available)
		assert.Nil(t, v.MyRecordID)
	}

	onlyFree := true
	avail, err := r.ListBooksForViewer(ctx, "", BooksQuery{Available: &onlyFree})
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, free.ID, avail[0].ID)

	_, err = r.BookForViewer(ctx, 999, alice.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListMyOpenRecords(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, r, "alice")

	recs, err := r.ListMyOpenRecords(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)

	b1 := mustBook(t, r, "1984", "9780451524935")
	b2 := mustBook(t, r, "Animal Farm", "9780451526342")
	r1, err := r.BorrowBook(ctx, u.ID, b1.ID)
	require.NoError(t, err)
	_, err = r.BorrowBook(ctx, u.ID, b2.ID)
	require.NoError(t, err)
	_, err = r.ReturnRecord(ctx, r1.ID, u.ID)
	require.NoError(t, err)

	recs, err = r.ListMyOpenRecords(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].Book)
	assert.Equal(t, "Animal Farm", recs[0].Book.Title)
	require.NotNil(t, recs[0].Book.Author)
	assert.Equal(t, "George Orwell", recs[0].Book.Author.Name)
}

func TestListRecordsAdmin(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	alice := mustUser(t, r, "alice")
	bob := mustUser(t, r, "bob")
	b1 := mustBook(t, r, "1984", "9780451524935")
	b2 := mustBook(t, r, "Animal Farm", "9780451526342")

	r1, err := r.BorrowBook(ctx, alice.ID, b1.ID)
	require.NoError(t, err)
	_, err = r.ReturnRecord(ctx, r1.ID, alice.ID)
	require.NoError(t, err)
	_, err = r.BorrowBook(ctx, bob.ID, b2.ID)
	require.NoError(t, err)

	all, err := r.ListRecordsAdmin(ctx, AdminRecordsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)
	require.Len(t, all.Records, 2)

	open, err := r.ListRecordsAdmin(ctx, AdminRecordsQuery{Status: "open"})
	require.NoError(t, err)
	require.Len(t, open.Records, 1)
	assert.Equal(t, "bob", open.Records[0].Username)
	assert.Equal(t, "Animal Farm", open.Records[0].BookTitle)
	assert.Equal(t, "George Orwell", open.Records[0].AuthorName)
	assert.False(t, open.Records[0].IsReturned)

	returned, err := r.ListRecordsAdmin(ctx, AdminRecordsQuery{Status: "returned", Q: "ALI"})
	require.NoError(t, err)
	require.Len(t, returned.Records, 1)
	assert.True(t, returned.Records[0].IsReturned)
	assert.Equal(t, r1.ID, returned.Records[0].ID)

	none, err := r.ListRecordsAdmin(ctx, AdminRecordsQuery{Q: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, none.Total)
	assert.Empty(t, none.Records)
}

func TestBorrowSpans(t *testing.T) {
	r := newTestRepo(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	r.tracer = tp.Tracer("test")

	ctx := context.Background()
	u := mustUser(t, r, "alice")
	b := mustBook(t, r, "1984", "9780451524935")

	rec, err := r.BorrowBook(ctx, u.ID, b.ID)
	require.NoError(t, err)
	_, err = r.BorrowBook(ctx, u.ID, b.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = r.ReturnRecord(ctx, rec.ID, u.ID)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "db.borrow_book", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int64("record.id", int64(rec.ID)))
	assert.Contains(t, spans[1].Attributes(), attribute.String("outcome", ErrConflict.Error()))
	assert.Equal(t, "db.return_record", spans[2].Name())
}
