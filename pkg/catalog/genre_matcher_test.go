// 文件: pkg/catalog/genre_matcher_test.go
package catalog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildGenrePattern(t *testing.T) {
	pattern, err := BuildGenrePattern("rock,jazz")
	require.NoError(t, err)
	require.Equal(t, "^(rock|jazz)", pattern)
}

// TestBuildGenrePattern_HierarchyMatch 层级前缀语义:
// 选中父流派必须命中所有子孙路径
func TestBuildGenrePattern_HierarchyMatch(t *testing.T) {
	pattern, err := BuildGenrePattern("rock,jazz")
	require.NoError(t, err)

	re := regexp.MustCompile(pattern)
	require.True(t, re.MatchString("rock"))
	require.True(t, re.MatchString("rock/metal"))
	require.True(t, re.MatchString("rock/metal/death"))
	require.True(t, re.MatchString("jazz/fusion"))
	require.False(t, re.MatchString("pop"))
	// 锚定在开头: 出现在中间的不算
	require.False(t, re.MatchString("post/rock"))
}

func TestBuildGenrePattern_ChildKey(t *testing.T) {
	pattern, err := BuildGenrePattern("electronic")
	require.NoError(t, err)

	re := regexp.MustCompile(pattern)
	require.True(t, re.MatchString("electronic/idm"))
	require.False(t, re.MatchString("rock"))
}

// TestBuildGenrePattern_EscapesMetaChars key 里的正则元字符必须转义，
// 否则用户偏好就成了注入点
func TestBuildGenrePattern_EscapesMetaChars(t *testing.T) {
	pattern, err := BuildGenrePattern("r&b.soul,drum|bass")
	require.NoError(t, err)
	require.Equal(t, `^(r&b\.soul|drum\|bass)`, pattern)

	re := regexp.MustCompile(pattern)
	require.True(t, re.MatchString("r&b.soul/neo"))
	// "." 被转义后不再匹配任意字符
	require.False(t, re.MatchString("r&bXsoul"))
}

func TestBuildGenrePattern_Empty(t *testing.T) {
	_, err := BuildGenrePattern("")
	require.ErrorIs(t, err, ErrEmptyGenreFilter)

	_, err = BuildGenrePattern(" , ,")
	require.ErrorIs(t, err, ErrEmptyGenreFilter)
}

func TestSplitGenreKeys(t *testing.T) {
	require.Equal(t, []string{"rock", "jazz"}, SplitGenreKeys("rock, jazz"))
	require.Nil(t, SplitGenreKeys("  "))
	require.Equal(t, []string{"pop"}, SplitGenreKeys(",pop,"))
}
