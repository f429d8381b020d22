package resolver_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubequest/checkin/internal/domain"
	"github.com/tubequest/checkin/internal/resolver"
)

// station builds a catalogue entry with a fixed random ID.
func station(name string, lat, lng float64) domain.Station {
	return domain.Station{ID: uuid.New(), Name: name, Lat: lat, Lng: lng}
}

// catalogue returns a small but realistic slice of the network.
func catalogue() []domain.Station {
	return []domain.Station{
		station("King's Cross St. Pancras", 51.5308, -0.1238),
		station("Euston", 51.5282, -0.1337),
		station("Victoria", 51.4965, -0.1447),
		station("Paddington", 51.5154, -0.1755),
		station("Elephant and Castle", 51.4943, -0.1001),
		station("Mornington Crescent", 51.5342, -0.1387),
	}
}

// resolveErr asserts the error is a *domain.ResolveError and returns it.
func resolveErr(t *testing.T, err error) *domain.ResolveError {
	t.Helper()
	var re *domain.ResolveError
	require.ErrorAs(t, err, &re)
	return re
}

// ---- exact stage -----------------------------------------------------------

func TestResolve_ExactWithUndergroundSuffix(t *testing.T) {
	got, err := resolver.Resolve("King's Cross St. Pancras Underground Station", "", catalogue(), nil)

	require.NoError(t, err)
	assert.Equal(t, "King's Cross St. Pancras", got.Station.Name)
	assert.Equal(t, domain.MatchExact, got.Rule, "suffix-bearing input must not fall through to fuzzy")
	assert.Equal(t, 1.0, got.Score)
}

func TestResolve_ExactIsCaseAndPunctuationInsensitive(t *testing.T) {
	got, err := resolver.Resolve("elephant & castle", "", catalogue(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Elephant and Castle", got.Station.Name)
	assert.Equal(t, domain.MatchExact, got.Rule)
}

func TestResolve_PrefersCleanedName(t *testing.T) {
	got, err := resolver.Resolve("EUSTON ← ₤2.40 ⇢ gibberish", "Euston", catalogue(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Euston", got.Station.Name)
	assert.Equal(t, domain.MatchExact, got.Rule)
}

// ---- suffix stage ----------------------------------------------------------

func TestResolve_BareStationSuffix(t *testing.T) {
	got, err := resolver.Resolve("Victoria Station", "", catalogue(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Victoria", got.Station.Name)
	assert.Equal(t, domain.MatchSuffix, got.Rule)
	assert.Equal(t, 0.95, got.Score)
}

// ---- fuzzy stage -----------------------------------------------------------

func TestResolve_FuzzyToleratesOneTypo(t *testing.T) {
	got, err := resolver.Resolve("Paddingtom", "", catalogue(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Paddington", got.Station.Name)
	assert.Equal(t, domain.MatchFuzzy, got.Rule)
	assert.GreaterOrEqual(t, got.Score, 0.90)
	assert.Less(t, got.Score, 1.0)
}

// ---- location-assisted stage -----------------------------------------------

func TestResolve_LocationAssistedFuzzy(t *testing.T) {
	// Two edits away from "Mornington Crescent": below the plain fuzzy
	// threshold, above the location-assisted one.
	userLoc := &domain.Coordinate{Lat: 51.5343, Lng: -0.1388} // ~10 m from the station

	got, err := resolver.Resolve("Morningtn Cresent", "", catalogue(), userLoc)

	require.NoError(t, err)
	assert.Equal(t, "Mornington Crescent", got.Station.Name)
	assert.Equal(t, domain.MatchLocationFuzzy, got.Rule)
	// Discounted: raw similarity times 0.9.
	assert.Less(t, got.Score, 0.85)
	assert.GreaterOrEqual(t, got.Score, 0.75*0.9)
}

func TestResolve_LocationAssistSkippedWithoutUserLocation(t *testing.T) {
	_, err := resolver.Resolve("Morningtn Cresent", "", catalogue(), nil)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveNoMatch, re.Code)
}

func TestResolve_LocationAssistIgnoresDistantStations(t *testing.T) {
	// User is near Victoria, ~5 km from Mornington Crescent.
	userLoc := &domain.Coordinate{Lat: 51.4965, Lng: -0.1447}

	_, err := resolver.Resolve("Morningtn Cresent", "", catalogue(), userLoc)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveNoMatch, re.Code)
}

// ---- ambiguity -------------------------------------------------------------

func TestResolve_TiedExactMatchesAreAmbiguous(t *testing.T) {
	// Edgware Road is genuinely two distinct stations with the same name.
	cat := []domain.Station{
		station("Edgware Road", 51.5203, -0.1669),
		station("Edgware Road", 51.5199, -0.1679),
	}

	_, err := resolver.Resolve("Edgware Road", "", cat, nil)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveAmbiguous, re.Code)
	require.Len(t, re.Suggestions, 2, "both tied stations must be offered, never one picked arbitrarily")
	assert.Equal(t, re.Suggestions[0].Score, re.Suggestions[1].Score)
}

func TestResolve_TieInLocationStageIsAmbiguous(t *testing.T) {
	// Same normalized name, both within the assist radius of the user.
	cat := []domain.Station{
		station("Hammersmith", 51.4920, -0.2227),
		station("Hammersmith", 51.4936, -0.2251),
	}
	userLoc := &domain.Coordinate{Lat: 51.4928, Lng: -0.2239}

	// Truncated OCR read: similarity ~0.82, below the plain fuzzy threshold
	// but above the location-assisted one, and identical for both stations.
	_, err := resolver.Resolve("Hammersmi", "", cat, userLoc)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveAmbiguous, re.Code)
	assert.Len(t, re.Suggestions, 2)
}

// ---- no match --------------------------------------------------------------

func TestResolve_UnmatchableTextReturnsSuggestions(t *testing.T) {
	_, err := resolver.Resolve("Zzqx Station", "", catalogue(), nil)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveNoMatch, re.Code)
	assert.LessOrEqual(t, len(re.Suggestions), 3)
	for _, s := range re.Suggestions {
		assert.GreaterOrEqual(t, s.Score, 0.5)
	}
}

func TestResolve_SuggestionsRankedDescending(t *testing.T) {
	cat := []domain.Station{
		station("Walthamstow Central", 51.5830, -0.0199),
		station("Walthamstow Queen's Road", 51.5815, -0.0245),
	}

	_, err := resolver.Resolve("Walthamsto", "", cat, nil)

	re := resolveErr(t, err)
	require.Equal(t, domain.ResolveNoMatch, re.Code)
	require.NotEmpty(t, re.Suggestions)
	for i := 1; i < len(re.Suggestions); i++ {
		assert.GreaterOrEqual(t, re.Suggestions[i-1].Score, re.Suggestions[i].Score)
	}
}

// ---- input errors ----------------------------------------------------------

func TestResolve_EmptyCatalogue(t *testing.T) {
	_, err := resolver.Resolve("Euston", "", nil, nil)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveNoCatalogue, re.Code)
}

func TestResolve_EmptySearchText(t *testing.T) {
	_, err := resolver.Resolve("   ", "", catalogue(), nil)

	re := resolveErr(t, err)
	assert.Equal(t, domain.ResolveEmptyText, re.Code)
}

func TestResolve_ErrorsAreValuesNotPanics(t *testing.T) {
	// The zero-value error path must be a plain error the caller can branch on.
	_, err := resolver.Resolve("Zzqx", "", catalogue(), nil)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrValidation), "resolver errors are their own type")
}
