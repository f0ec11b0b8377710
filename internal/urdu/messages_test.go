package urdu_test

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"

	"github.com/dawapahchan/dawapahchan/internal/urdu"
)

var allKeys = []urdu.Key{
	urdu.AgeRequired,
	urdu.GenderRequired,
	urdu.ProfileSaved,
	urdu.NotAnImage,
	urdu.ImageTooLarge,
	urdu.OfflineRetry,
	urdu.AnalysisFailed,
	urdu.OfflineAPIBody,
	urdu.NotIdentified,
	urdu.UnknownMedicine,
	urdu.NoInformation,
	urdu.ConsultDoctor,
	urdu.BackOnline,
	urdu.ConnectionLost,
	urdu.DetailsCollapsed,
	urdu.DetailsExpanded,
}

func TestT_EveryKeyResolvesToUrduText(t *testing.T) {
	for _, key := range allKeys {
		got := urdu.T(key)
		assert.NotEmpty(t, got, "key %s", key)
		assert.NotEqual(t, string(key), got, "key %s must resolve, not echo", key)

		hasArabicScript := false
		for _, r := range got {
			if unicode.Is(unicode.Arabic, r) {
				hasArabicScript = true
				break
			}
		}
		assert.True(t, hasArabicScript, "key %s should carry Urdu text, got %q", key, got)
	}
}
