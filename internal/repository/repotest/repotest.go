// Package repotest holds the behaviour every repository.Store backend must share.
// Backends run it from their own tests with a factory that yields an empty store.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techinsight/techinsight-be/internal/models"
	"github.com/techinsight/techinsight-be/internal/repository"
)

// Factory returns an empty, migrated store owned by t.
type Factory func(t *testing.T) repository.Store

var baseTime = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

// NewAccount builds a random account fixture created at baseTime.
func NewAccount() models.Account {
	return models.Account{
		ID:           uuid.NewString(),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Bio:          gofakeit.Paragraph(1, 2, 8, " "),
		Email:        fmt.Sprintf("%s.%s", uuid.NewString()[:8], gofakeit.Email()),
		PasswordHash: "$2a$04$" + gofakeit.LetterN(53),
		CreatedAt:    baseTime,
	}
}

// NewPost builds a post fixture by author created at the given time.
func NewPost(author models.Account, createdAt time.Time, title string, tags ...string) models.Post {
	if tags == nil {
		tags = []string{}
	}
	return models.Post{
		ID:           uuid.NewString(),
		Title:        title,
		Content:      gofakeit.Paragraph(2, 3, 10, "\n"),
		Thumbnail:    gofakeit.URL(),
		Author:       author.Snapshot(createdAt),
		Tags:         tags,
		CreatedAt:    createdAt,
		FavouritedBy: models.IDSet{},
		Likes:        models.IDSet{},
		Comments:     []models.Comment{},
	}
}

// Run executes the conformance suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store repository.Store)
	}{
		{"AccountCreateAndGet", testAccountCreateAndGet},
		{"AccountDuplicateEmail", testAccountDuplicateEmail},
		{"AccountNotFound", testAccountNotFound},
		{"AccountList", testAccountList},
		{"PostRoundTrip", testPostRoundTrip},
		{"PostListNewestFirst", testPostListNewestFirst},
		{"PostListByAuthor", testPostListByAuthor},
		{"PostUpdatePartial", testPostUpdatePartial},
		{"PostDelete", testPostDelete},
		{"PostSetLikeIdempotent", testPostSetLikeIdempotent},
		{"PostSetFavouriteToggle", testPostSetFavouriteToggle},
		{"PostAddComment", testPostAddComment},
		{"PostSearch", testPostSearch},
		{"PostSearchIsLiteral", testPostSearchIsLiteral},
		{"PostSearchFoldsNonASCII", testPostSearchFoldsNonASCII},
		{"PostConcurrentLikes", testPostConcurrentLikes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustCreateAccount(t *testing.T, store repository.Store) models.Account {
	t.Helper()
	account := NewAccount()
	require.NoError(t, store.Accounts().Create(context.Background(), &account))
	return account
}

func mustCreatePost(t *testing.T, store repository.Store, post models.Post) models.Post {
	t.Helper()
	require.NoError(t, store.Posts().Create(context.Background(), &post))
	return post
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func testAccountCreateAndGet(t *testing.T, store repository.Store) {
	ctx := context.Background()
	account := mustCreateAccount(t, store)

	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, account.FirstName, got.FirstName)
	assert.Equal(t, account.LastName, got.LastName)
	assert.Equal(t, account.Bio, got.Bio)
	assert.Equal(t, account.Email, got.Email)
	assert.True(t, account.CreatedAt.Equal(got.CreatedAt))

	byEmail, err := store.Accounts().GetByEmail(ctx, account.Email)
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)
	assert.Equal(t, account.PasswordHash, byEmail.PasswordHash)
}

func testAccountDuplicateEmail(t *testing.T, store repository.Store) {
	ctx := context.Background()
	first := mustCreateAccount(t, store)

	second := NewAccount()
	second.Email = first.Email
	err := store.Accounts().Create(ctx, &second)
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	got, err := store.Accounts().GetByEmail(ctx, first.Email)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.FirstName, got.FirstName)

	_, err = store.Accounts().GetByID(ctx, second.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testAccountNotFound(t *testing.T, store repository.Store) {
	ctx := context.Background()
	_, err := store.Accounts().GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.Accounts().GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testAccountList(t *testing.T, store repository.Store) {
	ctx := context.Background()
	accounts, err := store.Accounts().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	a := NewAccount()
	b := NewAccount()
	b.CreatedAt = baseTime.Add(time.Minute)
	require.NoError(t, store.Accounts().Create(ctx, &b))
	require.NoError(t, store.Accounts().Create(ctx, &a))

	accounts, err = store.Accounts().List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, a.ID, accounts[0].ID)
	assert.Equal(t, b.ID, accounts[1].ID)
}

func testPostRoundTrip(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	post := NewPost(author, baseTime, "Understanding Go interfaces", "go", "programming")
	post.IsFavourite = true
	mustCreatePost(t, store, post)

	got, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Content, got.Content)
	assert.Equal(t, post.Thumbnail, got.Thumbnail)
	assert.Equal(t, post.Tags, got.Tags)
	assert.True(t, got.IsFavourite)
	assert.True(t, post.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, post.Author.ID, got.Author.ID)
	assert.Equal(t, post.Author.FirstName, got.Author.FirstName)
	assert.Equal(t, post.Author.LastName, got.Author.LastName)
	assert.Equal(t, post.Author.Bio, got.Author.Bio)
	assert.True(t, post.Author.SnapshotAt.Equal(got.Author.SnapshotAt))
	assert.Empty(t, got.Likes)
	assert.Empty(t, got.FavouritedBy)
	assert.Empty(t, got.Comments)
	assert.NotNil(t, got.Likes)
	assert.NotNil(t, got.Comments)

	_, err = store.Posts().GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testPostListNewestFirst(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	oldest := mustCreatePost(t, store, NewPost(author, baseTime, "first"))
	newest := mustCreatePost(t, store, NewPost(author, baseTime.Add(2*time.Hour), "third"))
	middle := mustCreatePost(t, store, NewPost(author, baseTime.Add(time.Hour), "second"))

	posts, err := store.Posts().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, postIDs(posts))
}

func testPostListByAuthor(t *testing.T, store repository.Store) {
	ctx := context.Background()
	alice := mustCreateAccount(t, store)
	bob := mustCreateAccount(t, store)
	a1 := mustCreatePost(t, store, NewPost(alice, baseTime, "alice one"))
	a2 := mustCreatePost(t, store, NewPost(alice, baseTime.Add(time.Minute), "alice two"))
	mustCreatePost(t, store, NewPost(bob, baseTime, "bob one"))

	posts, err := store.Posts().ListByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a2.ID, a1.ID}, postIDs(posts))

	posts, err = store.Posts().ListByAuthor(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func testPostUpdatePartial(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	post := mustCreatePost(t, store, NewPost(author, baseTime, "draft title", "draft"))

	title := "final title"
	updated, err := store.Posts().Update(ctx, post.ID, models.PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, post.Content, updated.Content)
	assert.Equal(t, post.Thumbnail, updated.Thumbnail)
	assert.Equal(t, []string{"draft"}, updated.Tags)
	assert.False(t, updated.IsFavourite)

	tags := []string{"published", "go"}
	favourite := true
	content := "new body"
	updated, err = store.Posts().Update(ctx, post.ID, models.PostPatch{Tags: &tags, IsFavourite: &favourite, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, tags, updated.Tags)
	assert.True(t, updated.IsFavourite)

	unchanged, err := store.Posts().Update(ctx, post.ID, models.PostPatch{})
	require.NoError(t, err)
	assert.Equal(t, updated.Title, unchanged.Title)

	got, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)

	_, err = store.Posts().Update(ctx, uuid.NewString(), models.PostPatch{Title: &title})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testPostDelete(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	doomed := mustCreatePost(t, store, NewPost(author, baseTime, "doomed"))
	kept := mustCreatePost(t, store, NewPost(author, baseTime, "kept"))

	_, err := store.Posts().SetLike(ctx, doomed.ID, author.ID, true)
	require.NoError(t, err)
	_, err = store.Posts().AddComment(ctx, doomed.ID, models.Comment{
		ID: uuid.NewString(), Author: author.Snapshot(baseTime), Text: "bye", CreatedAt: baseTime,
	})
	require.NoError(t, err)

	require.NoError(t, store.Posts().Delete(ctx, doomed.ID))

	_, err = store.Posts().GetByID(ctx, doomed.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, store.Posts().Delete(ctx, doomed.ID), repository.ErrNotFound)

	got, err := store.Posts().GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, kept.Title, got.Title)
}

func testPostSetLikeIdempotent(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	reader := mustCreateAccount(t, store)
	post := mustCreatePost(t, store, NewPost(author, baseTime, "likeable"))

	count, err := store.Posts().SetLike(ctx, post.ID, reader.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = store.Posts().SetLike(ctx, post.ID, reader.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Posts().SetLike(ctx, post.ID, reader.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Posts().SetLike(ctx, post.ID, author.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IDSet{reader.ID, author.ID}, got.Likes)

	count, err = store.Posts().SetLike(ctx, post.ID, reader.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.Posts().SetLike(ctx, post.ID, reader.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = store.Posts().SetLike(ctx, uuid.NewString(), reader.ID, true)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testPostSetFavouriteToggle(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	reader := mustCreateAccount(t, store)
	post := mustCreatePost(t, store, NewPost(author, baseTime, "favourite me"))

	first, err := store.Posts().SetFavourite(ctx, post.ID, reader.ID, true)
	require.NoError(t, err)
	assert.True(t, first.IsFavourite)
	assert.Equal(t, models.IDSet{reader.ID}, first.FavouritedBy)

	off, err := store.Posts().SetFavourite(ctx, post.ID, reader.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsFavourite)
	assert.Empty(t, off.FavouritedBy)

	again, err := store.Posts().SetFavourite(ctx, post.ID, reader.ID, true)
	require.NoError(t, err)
	assert.Equal(t, first.IsFavourite, again.IsFavourite)
	assert.Equal(t, first.FavouritedBy, again.FavouritedBy)

	twice, err := store.Posts().SetFavourite(ctx, post.ID, reader.ID, true)
	require.NoError(t, err)
	assert.Equal(t, first.FavouritedBy, twice.FavouritedBy)

	_, err = store.Posts().SetFavourite(ctx, uuid.NewString(), reader.ID, true)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testPostAddComment(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	reader := mustCreateAccount(t, store)
	post := mustCreatePost(t, store, NewPost(author, baseTime, "discuss"))

	firstComment := models.Comment{
		ID: uuid.NewString(), Author: reader.Snapshot(baseTime.Add(time.Minute)),
		Text: "Great read", CreatedAt: baseTime.Add(time.Minute),
	}
	secondComment := models.Comment{
		ID: uuid.NewString(), Author: author.Snapshot(baseTime.Add(2 * time.Minute)),
		Text: "Thanks!", CreatedAt: baseTime.Add(2 * time.Minute),
	}

	_, err := store.Posts().AddComment(ctx, post.ID, firstComment)
	require.NoError(t, err)
	got, err := store.Posts().AddComment(ctx, post.ID, secondComment)
	require.NoError(t, err)

	require.Len(t, got.Comments, 2)
	assert.Equal(t, firstComment.ID, got.Comments[0].ID)
	assert.Equal(t, "Great read", got.Comments[0].Text)
	assert.Equal(t, reader.ID, got.Comments[0].Author.ID)
	assert.Equal(t, reader.FirstName, got.Comments[0].Author.FirstName)
	assert.True(t, firstComment.CreatedAt.Equal(got.Comments[0].CreatedAt))
	assert.True(t, firstComment.Author.SnapshotAt.Equal(got.Comments[0].Author.SnapshotAt))
	assert.Equal(t, secondComment.ID, got.Comments[1].ID)

	_, err = store.Posts().AddComment(ctx, uuid.NewString(), firstComment)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testPostSearch(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	byTitle := mustCreatePost(t, store, NewPost(author, baseTime, "Tech trends to watch", "industry"))
	byTitleUpper := mustCreatePost(t, store, NewPost(author, baseTime.Add(time.Minute), "Why I left BIGTECH", "career"))
	byTag := mustCreatePost(t, store, NewPost(author, baseTime.Add(2*time.Minute), "Weekend garden notes", "Gardening", "HighTech"))
	mustCreatePost(t, store, NewPost(author, baseTime.Add(3*time.Minute), "Cooking pasta", "food"))

	posts, err := store.Posts().Search(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{byTag.ID, byTitleUpper.ID, byTitle.ID}, postIDs(posts))

	posts, err = store.Posts().Search(ctx, "nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func testPostSearchIsLiteral(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	percent := mustCreatePost(t, store, NewPost(author, baseTime, "100% test coverage"))
	mustCreatePost(t, store, NewPost(author, baseTime, "1000 tests later"))
	dotted := mustCreatePost(t, store, NewPost(author, baseTime, "Notes", "c.go"))
	mustCreatePost(t, store, NewPost(author, baseTime, "More notes", "cargo"))

	posts, err := store.Posts().Search(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{percent.ID}, postIDs(posts))

	posts, err = store.Posts().Search(ctx, "c.go")
	require.NoError(t, err)
	assert.Equal(t, []string{dotted.ID}, postIDs(posts))
}

func testPostSearchFoldsNonASCII(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	byTitle := mustCreatePost(t, store, NewPost(author, baseTime, "École numérique"))
	byTag := mustCreatePost(t, store, NewPost(author, baseTime.Add(time.Minute), "Travel notes", "Über"))
	mustCreatePost(t, store, NewPost(author, baseTime.Add(2*time.Minute), "Ecole sans accent", "uber"))

	tests := []struct {
		query string
		want  []string
	}{
		{"école", []string{byTitle.ID}},
		{"ÉCOLE", []string{byTitle.ID}},
		{"NUMÉRIQUE", []string{byTitle.ID}},
		{"über", []string{byTag.ID}},
		{"ÜBER", []string{byTag.ID}},
		{"Über", []string{byTag.ID}},
	}
	for _, tt := range tests {
		posts, err := store.Posts().Search(ctx, tt.query)
		require.NoError(t, err)
		assert.Equal(t, tt.want, postIDs(posts), tt.query)
	}
}

func testPostConcurrentLikes(t *testing.T, store repository.Store) {
	ctx := context.Background()
	author := mustCreateAccount(t, store)
	post := mustCreatePost(t, store, NewPost(author, baseTime, "popular"))

	const readers = 16
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Posts().SetLike(ctx, post.ID, uuid.NewString(), true)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, readers, got.LikeCount())
}
