package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/internal/types"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	dataSource DataSource
	baseTime   time.Time
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.baseTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	var data []types.MarketData

	for _, symbol := range []string{"ETHUSDT", "BTCUSDT"} {
		for i := 0; i < 8; i++ {
			price := 100.0 + float64(i)
			data = append(data, types.MarketData{
				Symbol: symbol,
				Time:   suite.baseTime.Add(time.Duration(i) * time.Hour),
				Open:   price,
				High:   price + 2,
				Low:    price - 2,
				Close:  price + 1,
				Volume: 10,
			})
		}
	}

	path := filepath.Join(suite.T().TempDir(), "candles.parquet")
	suite.Require().NoError(writeCandlesToParquet(data, path))

	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(ds.Initialize(path))
	suite.dataSource = ds
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	if suite.dataSource != nil {
		suite.dataSource.Close()
	}
}

func writeCandlesToParquet(data []types.MarketData, filePath string) error {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		return err
	}

	for _, d := range data {
		_, err = db.Exec(`INSERT INTO market_data VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.Time, d.Symbol, d.Open, d.High, d.Low, d.Close, d.Volume)
		if err != nil {
			return err
		}
	}

	_, err = db.Exec(fmt.Sprintf(`COPY market_data TO '%s' (FORMAT PARQUET)`, filePath))

	return err
}

func (suite *DuckDBDataSourceTestSuite) TestCount() {
	count, err := suite.dataSource.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(16, count)

	count, err = suite.dataSource.Count(optional.Some(suite.baseTime.Add(6*time.Hour)), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(4, count)
}

func (suite *DuckDBDataSourceTestSuite) TestGetSymbols() {
	symbols, err := suite.dataSource.GetSymbols()
	suite.NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func (suite *DuckDBDataSourceTestSuite) TestReadAll() {
	var rows []types.MarketData

	for data, err := range suite.dataSource.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)
		rows = append(rows, data)
	}

	suite.Len(rows, 16)
	suite.Equal("BTCUSDT", rows[0].Symbol)
	suite.Equal("ETHUSDT", rows[15].Symbol)
	suite.True(rows[1].Time.After(rows[0].Time))
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllStopsEarly() {
	seen := 0

	for _, err := range suite.dataSource.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		seen++
		if seen == 3 {
			break
		}
	}

	suite.Equal(3, seen)
}

func (suite *DuckDBDataSourceTestSuite) TestReadSymbol() {
	candles, err := suite.dataSource.ReadSymbol("ETHUSDT", optional.None[time.Time](), optional.None[time.Time](), optional.None[Interval]())
	suite.NoError(err)
	suite.Len(candles, 8)
	suite.Equal(suite.baseTime, candles[0].Time)
	suite.Equal(101.0, candles[0].Close)
	suite.NoError(types.ValidateSequence(candles))
}

func (suite *DuckDBDataSourceTestSuite) TestReadSymbolRange() {
	candles, err := suite.dataSource.ReadSymbol("ETHUSDT",
		optional.Some(suite.baseTime.Add(2*time.Hour)),
		optional.Some(suite.baseTime.Add(4*time.Hour)),
		optional.None[Interval]())
	suite.NoError(err)
	suite.Len(candles, 3)
	suite.Equal(102.0, candles[0].Open)
}

func (suite *DuckDBDataSourceTestSuite) TestReadSymbolResampled() {
	candles, err := suite.dataSource.ReadSymbol("BTCUSDT", optional.None[time.Time](), optional.None[time.Time](), optional.Some(Interval2h))
	suite.NoError(err)
	suite.Require().Len(candles, 4)

	first := candles[0]
	suite.Equal(suite.baseTime, first.Time)
	suite.Equal(100.0, first.Open)
	suite.Equal(103.0, first.High)
	suite.Equal(98.0, first.Low)
	suite.Equal(102.0, first.Close)
	suite.Equal(20.0, first.Volume)
}

func (suite *DuckDBDataSourceTestSuite) TestReadSymbolUnknown() {
	_, err := suite.dataSource.ReadSymbol("DOGEUSDT", optional.None[time.Time](), optional.None[time.Time](), optional.None[Interval]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DuckDBDataSourceTestSuite) TestReadSymbolBadInterval() {
	_, err := suite.dataSource.ReadSymbol("BTCUSDT", optional.None[time.Time](), optional.None[time.Time](), optional.Some(Interval("3x")))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeMissingFile() {
	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(filepath.Join(suite.T().TempDir(), "missing.parquet"))
	suite.Error(err)
}
