package provider

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakePolygonAPI implements PolygonAPIClient and records the last params.
type fakePolygonAPI struct {
	iterator   PolygonAggsIterator
	lastParams *models.ListAggsParams
}

func (f *fakePolygonAPI) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	f.lastParams = params
	return f.iterator
}

// sliceIterator implements PolygonAggsIterator over a slice.
type sliceIterator struct {
	aggs  []models.Agg
	index int
	err   error
	seen  int
}

func (s *sliceIterator) Next() bool {
	if s.index >= len(s.aggs) {
		return false
	}

	s.index++
	s.seen++

	return true
}

func (s *sliceIterator) Item() models.Agg {
	return s.aggs[s.index-1]
}

func (s *sliceIterator) Err() error {
	return s.err
}

// newestFirst builds aggregates in descending time order, as returned with sort=desc.
func newestFirst(newest time.Time, interval time.Duration, count int) []models.Agg {
	aggs := make([]models.Agg, count)
	for i := range aggs {
		price := float64(100 + count - i)
		aggs[i] = models.Agg{
			Timestamp: models.Millis(newest.Add(-time.Duration(i) * interval)),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    500,
		}
	}

	return aggs
}

type PolygonClientTestSuite struct {
	suite.Suite
	now time.Time
}

func TestPolygonClientSuite(t *testing.T) {
	suite.Run(t, new(PolygonClientTestSuite))
}

func (suite *PolygonClientTestSuite) SetupTest() {
	suite.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *PolygonClientTestSuite) newClient(api PolygonAPIClient) *PolygonClient {
	client := NewPolygonClientWithAPI(api)
	client.now = func() time.Time { return suite.now }

	return client
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient() {
	client, err := NewPolygonClient("key")
	suite.NoError(err)
	suite.NotNil(client.apiClient)

	_, err = NewPolygonClient("")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *PolygonClientTestSuite) TestFetchCandlesOldestFirst() {
	newest := suite.now.Add(-2 * time.Hour)
	iter := &sliceIterator{aggs: newestFirst(newest, 2*time.Hour, 5)}
	api := &fakePolygonAPI{iterator: iter}

	candles, err := suite.newClient(api).FetchCandles(context.Background(), "X:BTCUSD", "2h", 3)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 3)

	suite.Equal(3, iter.seen)
	suite.True(candles[2].Time.Equal(newest))
	suite.True(candles[0].Time.Equal(newest.Add(-4 * time.Hour)))
	suite.Equal("X:BTCUSD", candles[0].Symbol)

	suite.Equal(2, api.lastParams.Multiplier)
	suite.Equal(models.Hour, api.lastParams.Timespan)
	suite.Equal(models.Desc, *api.lastParams.Order)
	suite.Equal(3, *api.lastParams.Limit)
	suite.True(time.Time(api.lastParams.To).Equal(suite.now))
	suite.True(time.Time(api.lastParams.From).Equal(suite.now.Add(-18 * time.Hour)))
}

func (suite *PolygonClientTestSuite) TestFetchCandlesErrors() {
	_, err := suite.newClient(&fakePolygonAPI{}).FetchCandles(context.Background(), "X:BTCUSD", "2x", 3)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))

	_, err = suite.newClient(&fakePolygonAPI{}).FetchCandles(context.Background(), "X:BTCUSD", "2h", 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	api := &fakePolygonAPI{iterator: &sliceIterator{err: stderrors.New("unauthorized")}}
	_, err = suite.newClient(api).FetchCandles(context.Background(), "X:BTCUSD", "2h", 3)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))

	api = &fakePolygonAPI{iterator: &sliceIterator{}}
	_, err = suite.newClient(api).FetchCandles(context.Background(), "X:BTCUSD", "2h", 3)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
}

func (suite *PolygonClientTestSuite) TestDownloadWithoutWriter() {
	_, err := suite.newClient(&fakePolygonAPI{}).Download(context.Background(), "SPY", suite.now, suite.now.Add(time.Hour), 1, models.Minute, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *PolygonClientTestSuite) TestDownloadSuccess() {
	start := suite.now.Add(-48 * time.Hour)
	aggs := newestFirst(suite.now, time.Hour, 48)
	api := &fakePolygonAPI{iterator: &sliceIterator{aggs: aggs}}
	w := &recordingWriter{outputPath: "/tmp/spy.parquet"}

	client := suite.newClient(api)
	client.ConfigWriter(w)

	calls := 0
	path, err := client.Download(context.Background(), "SPY", start, suite.now, 1, models.Hour, func(_, _ float64, _ string) { calls++ })
	suite.Require().NoError(err)
	suite.Equal("/tmp/spy.parquet", path)
	suite.Len(w.writtenData, 48)
	suite.Equal(1, w.finalizeCallCount)
	suite.Equal(1, calls)
	suite.Equal(50000, *api.lastParams.Limit)
}

func (suite *PolygonClientTestSuite) TestDownloadIteratorError() {
	api := &fakePolygonAPI{iterator: &sliceIterator{err: stderrors.New("bad gateway")}}
	w := &recordingWriter{}

	client := suite.newClient(api)
	client.ConfigWriter(w)

	_, err := client.Download(context.Background(), "SPY", suite.now.Add(-time.Hour), suite.now, 1, models.Minute, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Equal(1, w.closeCallCount)
	suite.Equal(0, w.finalizeCallCount)
}

func (suite *PolygonClientTestSuite) TestDownloadWriteError() {
	api := &fakePolygonAPI{iterator: &sliceIterator{aggs: newestFirst(suite.now, time.Minute, 3)}}
	w := &recordingWriter{writeErr: stderrors.New("disk full")}

	client := suite.newClient(api)
	client.ConfigWriter(w)

	_, err := client.Download(context.Background(), "SPY", suite.now.Add(-time.Hour), suite.now, 1, models.Minute, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
	suite.Equal(1, w.closeCallCount)
}
