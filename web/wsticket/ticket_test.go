package wsticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_live/model"
)

func TestTicketRoundTrip(t *testing.T) {
	ticketer := NewTicketer([]byte("test-key"), time.Minute)

	ticket, err := ticketer.Mint(100, model.ChallengeScope(1, 7))
	require.NoError(t, err)

	claims, err := ticketer.Verify(ticket)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), claims.UserID)
	assert.Equal(t, uint64(1), claims.GroupID)
	assert.Equal(t, uint64(7), claims.ChallengeID)
	assert.Equal(t, model.ChallengeScope(1, 7), claims.Scope())
}

func TestTicketExpired(t *testing.T) {
	ticketer := NewTicketer([]byte("test-key"), -time.Minute)

	ticket, err := ticketer.Mint(100, model.GroupScope(1))
	require.NoError(t, err)

	_, err = ticketer.Verify(ticket)
	assert.Error(t, err)
}

func TestTicketWrongKey(t *testing.T) {
	minter := NewTicketer([]byte("key-a"), time.Minute)
	verifier := NewTicketer([]byte("key-b"), time.Minute)

	ticket, err := minter.Mint(100, model.GroupScope(1))
	require.NoError(t, err)

	_, err = verifier.Verify(ticket)
	assert.Error(t, err)
}
