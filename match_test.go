package lob

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MatchingEngineTestSuite struct {
	suite.Suite
	engine *MatchingEngine
	book   *OrderBook
}

func TestMatchingEngineTestSuite(t *testing.T) {
	suite.Run(t, new(MatchingEngineTestSuite))
}

func (suite *MatchingEngineTestSuite) SetupTest() {
	suite.engine = NewMatchingEngine()
	suite.book = NewOrderBook()
	suite.book.SetTime(1)
}

func (suite *MatchingEngineTestSuite) TestRestsWhenNoCross() {
	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(4950),
		Size:  decimal.NewFromInt(100),
	})
	suite.NoError(err)
	suite.Empty(trades)

	trades, err = suite.engine.Match(suite.book, Order{
		ID:    "sell-1",
		Side:  Sell,
		Price: decimal.NewFromInt(5050),
		Size:  decimal.NewFromInt(50),
	})
	suite.NoError(err)
	suite.Empty(trades)

	bid, ok := suite.book.BestBid()
	suite.True(ok)
	suite.True(bid.Price.Equal(decimal.NewFromInt(4950)))
	suite.True(bid.TotalSize.Equal(decimal.NewFromInt(100)))

	ask, ok := suite.book.BestAsk()
	suite.True(ok)
	suite.True(ask.Price.Equal(decimal.NewFromInt(5050)))
	suite.True(ask.TotalSize.Equal(decimal.NewFromInt(50)))

	spread, ok := suite.book.Spread()
	suite.True(ok)
	suite.True(spread.Equal(decimal.NewFromInt(100)))
}

func (suite *MatchingEngineTestSuite) TestPartialMakerFill() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "sell-1",
		Side:  Sell,
		Price: decimal.NewFromInt(5000),
		Size:  decimal.NewFromInt(100),
	})
	suite.NoError(err)

	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(5000),
		Size:  decimal.NewFromInt(75),
	})
	suite.NoError(err)
	suite.Require().Len(trades, 1)

	suite.Equal("sell-1", trades[0].MakerID)
	suite.Equal("buy-1", trades[0].TakerID)
	suite.True(trades[0].Price.Equal(decimal.NewFromInt(5000)))
	suite.True(trades[0].Size.Equal(decimal.NewFromInt(75)))
	suite.True(trades[0].Value().Equal(decimal.NewFromInt(375000)))

	// The maker keeps its queue slot with the remainder; the taker is gone
	maker, ok := suite.book.GetOrder("sell-1")
	suite.True(ok)
	suite.True(maker.Size.Equal(decimal.NewFromInt(25)))
	suite.False(suite.book.Contains("buy-1"))

	ask, ok := suite.book.BestAsk()
	suite.True(ok)
	suite.True(ask.TotalSize.Equal(decimal.NewFromInt(25)))
	suite.Equal(1, suite.book.TotalOrders())
}

func (suite *MatchingEngineTestSuite) TestFIFOAcrossMakers() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "sell-1",
		Side:  Sell,
		Price: decimal.NewFromInt(5000),
		Size:  decimal.NewFromInt(50),
	})
	suite.NoError(err)
	_, err = suite.engine.Match(suite.book, Order{
		ID:    "sell-2",
		Side:  Sell,
		Price: decimal.NewFromInt(5000),
		Size:  decimal.NewFromInt(100),
	})
	suite.NoError(err)

	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(5000),
		Size:  decimal.NewFromInt(80),
	})
	suite.NoError(err)
	suite.Require().Len(trades, 2)

	// Earlier arrival fills first and fully
	suite.Equal("sell-1", trades[0].MakerID)
	suite.True(trades[0].Size.Equal(decimal.NewFromInt(50)))
	suite.Equal("sell-2", trades[1].MakerID)
	suite.True(trades[1].Size.Equal(decimal.NewFromInt(30)))

	suite.False(suite.book.Contains("sell-1"))
	remaining, ok := suite.book.GetOrder("sell-2")
	suite.True(ok)
	suite.True(remaining.Size.Equal(decimal.NewFromInt(70)))
	suite.False(suite.book.Contains("buy-1"))
}

func (suite *MatchingEngineTestSuite) TestWalksLevelsUpToLimit() {
	for _, o := range []Order{
		{ID: "ask-100", Side: Sell, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(30)},
		{ID: "ask-101", Side: Sell, Price: decimal.NewFromInt(101), Size: decimal.NewFromInt(30)},
		{ID: "ask-102", Side: Sell, Price: decimal.NewFromInt(102), Size: decimal.NewFromInt(30)},
	} {
		_, err := suite.engine.Match(suite.book, o)
		suite.NoError(err)
	}

	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(101),
		Size:  decimal.NewFromInt(70),
	})
	suite.NoError(err)
	suite.Require().Len(trades, 2)

	// Fills at each maker's own price, never past the taker's limit
	suite.True(trades[0].Price.Equal(decimal.NewFromInt(100)))
	suite.True(trades[0].Size.Equal(decimal.NewFromInt(30)))
	suite.True(trades[1].Price.Equal(decimal.NewFromInt(101)))
	suite.True(trades[1].Size.Equal(decimal.NewFromInt(30)))

	// The unfilled 10 rests at the taker's limit as the new best bid
	rest, ok := suite.book.GetOrder("buy-1")
	suite.True(ok)
	suite.True(rest.Size.Equal(decimal.NewFromInt(10)))
	bid, _ := suite.book.BestBid()
	suite.True(bid.Price.Equal(decimal.NewFromInt(101)))

	ask, _ := suite.book.BestAsk()
	suite.True(ask.Price.Equal(decimal.NewFromInt(102)))
	suite.Equal(1, suite.book.TotalLevels(Sell))
}

func (suite *MatchingEngineTestSuite) TestExactFillLeavesNothing() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "sell-1",
		Side:  Sell,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(50),
	})
	suite.NoError(err)

	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(50),
	})
	suite.NoError(err)
	suite.Require().Len(trades, 1)
	suite.True(trades[0].Size.Equal(decimal.NewFromInt(50)))

	suite.Equal(0, suite.book.TotalOrders())
	suite.Equal(0, suite.book.TotalLevels(Buy))
	suite.Equal(0, suite.book.TotalLevels(Sell))
}

func (suite *MatchingEngineTestSuite) TestTakerGetsMakerPrice() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "sell-1",
		Side:  Sell,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(10),
	})
	suite.NoError(err)

	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(110),
		Size:  decimal.NewFromInt(10),
	})
	suite.NoError(err)
	suite.Require().Len(trades, 1)
	suite.True(trades[0].Price.Equal(decimal.NewFromInt(100)), "execution at the resting price, not the incoming limit")
}

func (suite *MatchingEngineTestSuite) TestSelfTradeStopsTheWalk() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "other",
		Side:  Buy,
		Price: decimal.NewFromInt(105),
		Size:  decimal.NewFromInt(10),
	})
	suite.NoError(err)
	_, err = suite.engine.Match(suite.book, Order{
		ID:    "mine",
		Side:  Buy,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(10),
	})
	suite.NoError(err)

	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "mine",
		Side:  Sell,
		Price: decimal.NewFromInt(95),
		Size:  decimal.NewFromInt(30),
	})
	suite.ErrorIs(err, ErrSelfTrade)

	// Fills before the collision stand; the collision aborts the walk
	suite.Require().Len(trades, 1)
	suite.Equal("other", trades[0].MakerID)
	suite.True(trades[0].Size.Equal(decimal.NewFromInt(10)))

	// The resting half is untouched and the remainder is not rested
	resting, ok := suite.book.GetOrder("mine")
	suite.True(ok)
	suite.Equal(Buy, resting.Side)
	suite.True(resting.Size.Equal(decimal.NewFromInt(10)))
	suite.Equal(0, suite.book.TotalLevels(Sell))
}

func (suite *MatchingEngineTestSuite) TestDuplicateIDSurfacesAtRest() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "dup",
		Side:  Sell,
		Price: decimal.NewFromInt(110),
		Size:  decimal.NewFromInt(1),
	})
	suite.NoError(err)

	// Same id again, not crossing: no fills happen, so the rest step
	// collides with the resting order.
	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "dup",
		Side:  Buy,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(5),
	})
	suite.ErrorIs(err, ErrDuplicateOrderID)
	suite.Empty(trades)

	suite.Equal(1, suite.book.TotalOrders())
	o, _ := suite.book.GetOrder("dup")
	suite.Equal(Sell, o.Side)
}

func (suite *MatchingEngineTestSuite) TestRejectsInvalidOrder() {
	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "bad",
		Side:  Buy,
		Price: decimal.NewFromInt(100),
		Size:  decimal.Zero,
	})
	suite.ErrorIs(err, ErrInvalidOrder)
	suite.Empty(trades)

	trades, err = suite.engine.Match(suite.book, Order{
		ID:    "bad",
		Side:  Side(9),
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(1),
	})
	suite.ErrorIs(err, ErrInvalidOrder)
	suite.Empty(trades)
	suite.Equal(0, suite.book.TotalOrders())
}

func (suite *MatchingEngineTestSuite) TestTradesCarryBookTime() {
	_, err := suite.engine.Match(suite.book, Order{
		ID:    "sell-1",
		Side:  Sell,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(10),
	})
	suite.NoError(err)

	suite.book.SetTime(99)
	trades, err := suite.engine.Match(suite.book, Order{
		ID:    "buy-1",
		Side:  Buy,
		Price: decimal.NewFromInt(100),
		Size:  decimal.NewFromInt(4),
	})
	suite.NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(int64(99), trades[0].Timestamp)

	// The partially filled maker's event time moves with the fill
	maker, _ := suite.book.GetOrder("sell-1")
	suite.Equal(int64(99), maker.EventTime)
	suite.Equal(int64(1), maker.EntryTime)
}
