package spend

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// fakeSource counts warehouse reads and serves canned figures per audience.
type fakeSource struct {
	figures map[string]Figures
	reads   int
}

func (f *fakeSource) AudienceFigures(_ context.Context, _, audienceID string) (Figures, error) {
	f.reads++
	return f.figures[audienceID], nil
}

func fp(v float64) *float64 { return &v }

func TestPostgresSource_AudienceFigures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := NewPostgresSource(db)

	mock.ExpectQuery("SELECT spend, cpa").
		WithArgs("act-7", "aud-a").
		WillReturnRows(sqlmock.NewRows([]string{"spend", "cpa"}).AddRow(1234.5, 18.2))

	f, err := src.AudienceFigures(context.Background(), "act-7", "aud-a")
	require.NoError(t, err)
	require.NotNil(t, f.Spend)
	assert.Equal(t, 1234.5, *f.Spend)
	require.NotNil(t, f.CPA)
	assert.Equal(t, 18.2, *f.CPA)
}

func TestPostgresSource_MissingRowIsAbsentData(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := NewPostgresSource(db)

	mock.ExpectQuery("SELECT spend, cpa").
		WithArgs("act-7", "aud-x").
		WillReturnRows(sqlmock.NewRows([]string{"spend", "cpa"}))

	f, err := src.AudienceFigures(context.Background(), "act-7", "aud-x")
	require.NoError(t, err)
	assert.Nil(t, f.Spend)
	assert.Nil(t, f.CPA)
}

func TestPostgresSource_NullCPA(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	src := NewPostgresSource(db)

	mock.ExpectQuery("SELECT spend, cpa").
		WithArgs("act-7", "aud-a").
		WillReturnRows(sqlmock.NewRows([]string{"spend", "cpa"}).AddRow(500.0, nil))

	f, err := src.AudienceFigures(context.Background(), "act-7", "aud-a")
	require.NoError(t, err)
	require.NotNil(t, f.Spend)
	assert.Nil(t, f.CPA)
}

func TestProvider_PairSpend(t *testing.T) {
	src := &fakeSource{figures: map[string]Figures{
		"aud-a": {Spend: fp(5000), CPA: fp(12)},
		"aud-b": {Spend: fp(1200)},
	}}
	p := NewProvider(src, nil, time.Minute)

	data, err := p.PairSpend(context.Background(), "act-7", "aud-a", "aud-b")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 5000.0, *data.SpendA)
	assert.Equal(t, 1200.0, *data.SpendB)
	assert.Equal(t, 12.0, *data.CPAA)
	assert.Nil(t, data.CPAB)
}

func TestProvider_NoFiguresIsNil(t *testing.T) {
	src := &fakeSource{figures: map[string]Figures{}}
	p := NewProvider(src, nil, time.Minute)

	data, err := p.PairSpend(context.Background(), "act-7", "aud-a", "aud-b")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestProvider_CachesWarehouseReads(t *testing.T) {
	client, _ := setupTestRedis(t)
	src := &fakeSource{figures: map[string]Figures{
		"aud-a": {Spend: fp(5000)},
		"aud-b": {Spend: fp(1200)},
	}}
	p := NewProvider(src, client, time.Minute)

	_, err := p.PairSpend(context.Background(), "act-7", "aud-a", "aud-b")
	require.NoError(t, err)
	assert.Equal(t, 2, src.reads)

	// Second lookup is served from cache.
	data, err := p.PairSpend(context.Background(), "act-7", "aud-a", "aud-b")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 5000.0, *data.SpendA)
	assert.Equal(t, 2, src.reads)
}

func TestProvider_CacheExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	src := &fakeSource{figures: map[string]Figures{"aud-a": {Spend: fp(5000)}}}
	p := NewProvider(src, client, time.Minute)

	_, err := p.PairSpend(context.Background(), "act-7", "aud-a", "aud-a")
	require.NoError(t, err)
	reads := src.reads

	mr.FastForward(2 * time.Minute)

	_, err = p.PairSpend(context.Background(), "act-7", "aud-a", "aud-a")
	require.NoError(t, err)
	assert.Greater(t, src.reads, reads)
}

func TestProvider_CorruptCacheEntryRefetches(t *testing.T) {
	client, mr := setupTestRedis(t)
	src := &fakeSource{figures: map[string]Figures{"aud-a": {Spend: fp(5000)}}}
	p := NewProvider(src, client, time.Minute)

	require.NoError(t, mr.Set("spend:act-7:aud-a", "{not json"))

	data, err := p.PairSpend(context.Background(), "act-7", "aud-a", "aud-a")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 5000.0, *data.SpendA)
}
