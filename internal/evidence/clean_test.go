package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_StripsURLsAndPageNumbers(t *testing.T) {
	raw := "당사의 사업 현황은 다음과 같습니다. https://dart.fss.or.kr/report 참조\n- 12 -\nPage 12 of 88\n수요는 꾸준히 증가하고 있습니다."
	cleaned := Clean(raw)
	assert.NotContains(t, cleaned, "https://")
	assert.NotContains(t, cleaned, "- 12 -")
	assert.NotContains(t, cleaned, "Page 12")
	assert.Contains(t, cleaned, "수요는 꾸준히 증가하고 있습니다.")
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "가 나 다", Clean("가   나\n\n\t다  "))
}

func TestKoreanCount(t *testing.T) {
	assert.Equal(t, 0, KoreanCount("hello 123"))
	assert.Equal(t, 2, KoreanCount("한글 and more"))
	assert.Equal(t, 5, KoreanCount("가나다라마"))
}

func TestKoreanRatio(t *testing.T) {
	assert.Equal(t, 1.0, KoreanRatio("가나다"))
	assert.Equal(t, 0.0, KoreanRatio("abc 123"))
	assert.InDelta(t, 0.5, KoreanRatio("가나 ab"), 0.01)
	assert.Equal(t, 0.0, KoreanRatio("   "))
}

func TestHasSentenceFinal(t *testing.T) {
	assert.True(t, HasSentenceFinal("수요가 증가하고 있습니다."))
	assert.True(t, HasSentenceFinal("시장 지배력이 강화됨"))
	assert.True(t, HasSentenceFinal("그렇습니다.”"))
	assert.False(t, HasSentenceFinal("매출액 (단위: 백만원)"))
	assert.False(t, HasSentenceFinal("revenue growth"))
	assert.False(t, HasSentenceFinal(""))
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("규제가 강화되었다. 비용이 늘었다! 대응 방안은?")
	assert.Equal(t, []string{"규제가 강화되었다", "비용이 늘었다", "대응 방안은"}, got)
}
