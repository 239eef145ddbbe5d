// 文件: pkg/catalog/genre_matcher.go
// 流派层级匹配器
//
// 把逗号分隔的流派 key 集合展开成一个锚定的正则交替式:
//
//	"rock,jazz" -> ^(rock|jazz)
//
// 用它对 genres.path 做前缀匹配: 选中父流派 (rock) 时，
// 所有子孙节点 (rock/metal, rock/metal/death) 一并命中。
// 普通的相等/子串判断做不到这一点，这是层级语义的关键。

package catalog

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyGenreFilter 空的流派集合不应该走到匹配器
var ErrEmptyGenreFilter = errors.New("catalog: empty genre filter")

// BuildGenrePattern 构造层级前缀匹配的正则模式
//
// 每个 key 先经过 regexp.QuoteMeta 转义，再拼交替式。
// key 来自用户偏好，不转义会把元字符直接注入 REGEXP 查询。
// 返回的模式作为绑定参数传给 path REGEXP ?，绝不拼进 SQL 字符串。
func BuildGenrePattern(genreData string) (string, error) {
	keys := SplitGenreKeys(genreData)
	if len(keys) == 0 {
		return "", ErrEmptyGenreFilter
	}

	escaped := make([]string, 0, len(keys))
	for _, key := range keys {
		escaped = append(escaped, regexp.QuoteMeta(key))
	}
	return "^(" + strings.Join(escaped, "|") + ")", nil
}

// SplitGenreKeys 拆分逗号分隔的流派 key，去掉空白和空项
func SplitGenreKeys(genreData string) []string {
	if strings.TrimSpace(genreData) == "" {
		return nil
	}

	parts := strings.Split(genreData, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
