package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/childcare-availability/internal/tabular"
)

const (
	testDate     = "2024-04-01"
	testNextDate = "2024-04-02"
)

func sourced(c Category, csvText string) SourcedTable {
	return SourcedTable{Category: c, URI: "test://" + string(c), Table: tabular.Parse(csvText)}
}

func ptr[T any](v T) *T { return &v }

// fixture is a small two-category registry with three age buckets.
//
//	7   Alpha  certified  2024-04-01: 3歳 ○, 4歳 ×, 5歳 blank
//	12  Beta   private    2024-04-01: 3歳 満 午前 ; 2024-04-02: 3歳 午後
//	30  Gamma  private    no availability
func fixture(t *testing.T) *JoinResult {
	t.Helper()
	facilities := []SourcedTable{
		sourced(CategoryCertified, "NO,名称,緯度,経度,所在地1,所在地2,電話番号\n"+
			"007,Alpha,34.70,137.72,浜松市中区,元城町103-2,053-000-0000\n"),
		sourced(CategoryPrivate, "NO,名称,緯度,経度\n"+
			"12,Beta,34.71,137.73\n"+
			"30,Gamma,34.72,137.74\n"),
	}
	availability := tabular.Parse("施設No.,日付,曜日,一時保育(5歳児),一時保育(3歳児),一時保育(4歳児)\n" +
		"7,2024-04-01,月,,○,×\n" +
		"12,2024-04-02,火,,午後,\n" +
		"１２,2024-04-01,月,,満 午前,\n")

	jr, err := Join(facilities, availability)
	require.NoError(t, err)
	return jr
}
