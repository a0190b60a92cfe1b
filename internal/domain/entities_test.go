package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinRaiseAmount(t *testing.T) {
	tests := []struct {
		name          string
		startingPrice int64
		expected      int64
	}{
		{
			name:          "floor applies to cheap posts",
			startingPrice: 1000,
			expected:      MinRaiseFloor,
		},
		{
			name:          "floor applies at zero",
			startingPrice: 0,
			expected:      MinRaiseFloor,
		},
		{
			name:          "five percent exactly at the floor boundary",
			startingPrice: 10000000,
			expected:      MinRaiseFloor,
		},
		{
			name:          "five percent above the floor",
			startingPrice: 20000000,
			expected:      1000000,
		},
		{
			name:          "integer division truncates",
			startingPrice: 20000001,
			expected:      1000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auction := &Auction{StartingPrice: tt.startingPrice}
			assert.Equal(t, tt.expected, auction.MinRaiseAmount())
		})
	}
}

func TestTopBids(t *testing.T) {
	bid := func(uid string, amount int64) *Bid {
		return &Bid{UID: uid, Amount: amount}
	}

	t.Run("sorted descending and truncated", func(t *testing.T) {
		auction := &Auction{
			Bids: []*Bid{
				bid("b1", 11000),
				bid("b2", 14000),
				bid("b3", 12000),
				bid("b4", 13000),
			},
		}

		top := auction.TopBids()
		require.Len(t, top, TopBidsCount)
		assert.Equal(t, "b2", top[0].UID)
		assert.Equal(t, "b4", top[1].UID)
		assert.Equal(t, "b3", top[2].UID)
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		auction := &Auction{
			Bids: []*Bid{
				bid("first", 5000),
				bid("second", 5000),
				bid("third", 5000),
			},
		}

		top := auction.TopBids()
		require.Len(t, top, 3)
		assert.Equal(t, "first", top[0].UID)
		assert.Equal(t, "second", top[1].UID)
		assert.Equal(t, "third", top[2].UID)
	})

	t.Run("fewer bids than the cutoff", func(t *testing.T) {
		auction := &Auction{Bids: []*Bid{bid("only", 7000)}}
		assert.Len(t, auction.TopBids(), 1)
	})

	t.Run("does not reorder the auction's bid slice", func(t *testing.T) {
		auction := &Auction{
			Bids: []*Bid{bid("low", 1000), bid("high", 9000)},
		}
		auction.TopBids()
		assert.Equal(t, "low", auction.Bids[0].UID)
	})
}

func TestAuctionState(t *testing.T) {
	auction := &Auction{}
	assert.Equal(t, AuctionOpen, auction.State())
	assert.Equal(t, "open", auction.State().String())

	auction.SelectedBid = "some-bid"
	assert.Equal(t, AuctionAwarded, auction.State())
	assert.Equal(t, "awarded", auction.State().String())
}
