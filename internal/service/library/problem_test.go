package library

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"problembox/internal/config"
	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

func TestDeleteProblems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1 := f.addProblem("q1")
	p2 := f.addProblem("q2")
	n1 := f.addNode("q1", tree.NodeTypeFile, nil, &p1)
	n2 := f.addNode("q2", tree.NodeTypeFile, nil, &p2)
	_, err := f.problems.ToggleFavorite(ctx, user, p1)
	require.NoError(t, err)

	require.NoError(t, f.problems.DeleteProblems(ctx, user, []string{p1}))
	assert.Nil(t, f.node(n1))
	assert.NotNil(t, f.node(n2))
	assert.Empty(t, f.store.favorites[user])

	assert.ErrorIs(t, f.problems.DeleteProblems(ctx, user, []string{p1}), domain.ErrNotFound)
	assert.ErrorIs(t, f.problems.DeleteProblems(ctx, user, nil), domain.ErrValidation)
}

func TestToggleFavorite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1 := f.addProblem("q1")
	p2 := f.addProblem("q2")

	favs, err := f.problems.ToggleFavorite(ctx, user, p1)
	require.NoError(t, err)
	assert.Equal(t, []string{p1}, favs)

	favs, err = f.problems.ToggleFavorite(ctx, user, p2)
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, favs)

	favs, err = f.problems.ToggleFavorite(ctx, user, p1)
	require.NoError(t, err)
	assert.Equal(t, []string{p2}, favs)

	_, err = f.problems.ToggleFavorite(ctx, user, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.problems.ToggleFavorite(ctx, user, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// fileParents maps each imported problem id to the titles of its folder path.
func fileParents(t *testing.T, f *fixture) map[string][]string {
	t.Helper()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	out := make(map[string][]string)
	for _, n := range f.store.nodes {
		if n.Type != tree.NodeTypeFile {
			continue
		}
		var path []string
		for p := n.ParentID; p != nil; p = f.store.nodes[*p].ParentID {
			path = append([]string{f.store.nodes[*p].Title}, path...)
		}
		out[*n.ProblemID] = path
	}
	return out
}

func TestImportFilesIntoCategoryFolders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	existing := &models.Problem{UserID: user, Subject: "数学", Tags: []string{"数学", "函数", "导数"}}
	require.NoError(t, memProblems{f.store}.Create(ctx, existing))

	f.classify.results = []svc.Classification{
		{Summary: "求函数的导数。", Mid: "函数", Small: "导数", Difficulty: tree.DifficultyHard},
		{Summary: "", Mid: "函数", Small: "单调性", Difficulty: tree.DifficultyEasy},
		{Summary: "数列求和", Mid: "数列", Difficulty: "bogus"},
	}

	problems, err := f.problems.Import(ctx, user, &svc.ImportRequest{
		Subject: "数学",
		Items: []svc.ImportItem{
			{Content: "已知 f(x)=x^2，求 f'(x)"},
			{Content: "  讨论函数 g(x) 的单调性并说明理由，这是一道比较长的题目描述  "},
			{Content: "求等差数列前 n 项和", Difficulty: "easy"},
		},
	})
	require.NoError(t, err)
	require.Len(t, problems, 3)

	assert.Equal(t, []string{"函数"}, f.classify.got.ExistingCategories)
	assert.Equal(t, "数学", f.classify.got.Subject)

	assert.Equal(t, "求函数的导数", problems[0].Title)
	assert.Equal(t, tree.DifficultyHard, problems[0].Difficulty)
	assert.Equal(t, []string{"数学", "函数", "导数"}, problems[0].Tags)

	assert.Equal(t, "讨论函数 g(x) 的单调性并说明理由，这是一道比", problems[1].Title)
	assert.Equal(t, tree.DifficultyEasy, problems[2].Difficulty)
	assert.Equal(t, []string{"数学", "数列"}, problems[2].Tags)

	paths := fileParents(t, f)
	assert.Equal(t, []string{"函数", "导数"}, paths[problems[0].ID])
	assert.Equal(t, []string{"函数", "单调性"}, paths[problems[1].ID])
	assert.Equal(t, []string{"数列"}, paths[problems[2].ID])

	// The 函数 folder is created once and shared.
	var funcFolders int
	for _, n := range f.store.nodes {
		if n.Title == "函数" && n.Type == tree.NodeTypeFolder {
			funcFolders++
		}
	}
	assert.Equal(t, 1, funcFolders)
}

func TestImportReusesExistingFolders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	parent := f.addNode("Inbox", tree.NodeTypeFolder, nil, nil)
	mid := f.addNode("函数", tree.NodeTypeFolder, &parent, nil)
	f.classify.results = []svc.Classification{{Mid: "函数"}}

	problems, err := f.problems.Import(ctx, user, &svc.ImportRequest{
		ParentFolderID: &parent,
		Items:          []svc.ImportItem{{Content: "q"}},
	})
	require.NoError(t, err)

	node, err := memNodes{f.store}.GetByProblemID(ctx, user, problems[0].ID)
	require.NoError(t, err)
	assert.Equal(t, mid, *node.ParentID)
	assert.Equal(t, "未分类", problems[0].Subject)
}

func TestImportForceParentOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	parent := f.addNode("Inbox", tree.NodeTypeFolder, nil, nil)
	f.classify.results = []svc.Classification{{Mid: "ignored"}}

	problems, err := f.problems.Import(ctx, user, &svc.ImportRequest{
		ParentFolderID:  &parent,
		Subject:         "物理",
		ForceParentOnly: true,
		Items:           []svc.ImportItem{{Content: "q", Title: "Given title!"}},
	})
	require.NoError(t, err)
	assert.Nil(t, f.classify.got, "classifier is skipped")
	assert.Equal(t, "Given title", problems[0].Title)
	assert.Equal(t, []string{"物理"}, problems[0].Tags)
	assert.Equal(t, []string{"Inbox"}, fileParents(t, f)[problems[0].ID])
}

func TestImportClassifierFailureDegrades(t *testing.T) {
	f := newFixture()
	f.classify.err = errors.New("llm down")

	problems, err := f.problems.Import(context.Background(), user, &svc.ImportRequest{
		Items: []svc.ImportItem{{Content: "？？？"}, {Content: "x", Tags: []string{"a", "b"}}},
	})
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, "新导入题目", problems[0].Title)
	assert.Equal(t, []string{"未分类"}, problems[0].Tags)
	assert.Empty(t, fileParents(t, f)[problems[0].ID])
	// Caller-supplied tags still drive folder placement.
	assert.Equal(t, []string{"b"}, fileParents(t, f)[problems[1].ID])
}

func TestImportConvertsHTML(t *testing.T) {
	f := newFixture()
	f.classify.results = []svc.Classification{{Mid: "函数"}}

	problems, err := f.problems.Import(context.Background(), user, &svc.ImportRequest{
		Subject: "数学",
		Items:   []svc.ImportItem{{Content: `<p>求 <strong>极值</strong></p><script>steal()</script>`}},
	})
	require.NoError(t, err)
	require.Len(t, problems, 1)

	assert.Equal(t, "求 极值", problems[0].Title)
	assert.Contains(t, problems[0].Description, "**极值**")
	assert.NotContains(t, problems[0].Description, "steal")
	assert.Equal(t, []string{problems[0].Description}, f.classify.got.Items)
}

func TestImportClampsLongTitles(t *testing.T) {
	f := newFixture()
	long := strings.Repeat("长", 300)
	f.classify.results = []svc.Classification{
		{Mid: long, Small: "小类"},
		{Mid: "函数", Summary: strings.Repeat("概", 400)},
	}

	problems, err := f.problems.Import(context.Background(), user, &svc.ImportRequest{
		Subject: "数学",
		Items: []svc.ImportItem{
			{Title: long, Content: "q1"},
			{Content: "q2"},
		},
	})
	require.NoError(t, err)
	require.Len(t, problems, 2)

	assert.Equal(t, strings.Repeat("长", 255), problems[0].Title)
	assert.Equal(t, strings.Repeat("概", 255), problems[1].Title)
	parents := fileParents(t, f)
	assert.Equal(t, []string{strings.Repeat("长", 255), "小类"}, parents[problems[0].ID])
	assert.Equal(t, []string{"函数"}, parents[problems[1].ID])
}

func TestImportValidation(t *testing.T) {
	f := newFixture()
	p := f.addProblem("q")
	file := f.addNode("q", tree.NodeTypeFile, nil, &p)

	tests := []struct {
		name    string
		req     svc.ImportRequest
		wantErr error
	}{
		{"no items", svc.ImportRequest{}, domain.ErrValidation},
		{"blank content", svc.ImportRequest{Items: []svc.ImportItem{{Content: " "}}}, domain.ErrValidation},
		{"too many items", svc.ImportRequest{Items: make([]svc.ImportItem, 51)}, domain.ErrValidation},
		{"content too long", svc.ImportRequest{Items: []svc.ImportItem{{Content: strings.Repeat("a", 20001)}}}, domain.ErrValidation},
		{"parent is a file", svc.ImportRequest{ParentFolderID: &file, Items: []svc.ImportItem{{Content: "q"}}}, tree.ErrNotFolder},
		{"unknown parent", svc.ImportRequest{ParentFolderID: strPtr("missing"), Items: []svc.ImportItem{{Content: "q"}}}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.problems.Import(context.Background(), user, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := map[string]string{
		"  求导数。 ": "求导数",
		"Why?!":   "Why",
		"a、b、":    "a、b",
		"。。。":     "",
		"plain":   "plain",
		"中间。保留。":  "中间。保留",
	}
	for in, want := range tests {
		if got := sanitizeTitle(in); got != want {
			t.Errorf("sanitizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoryPathSkipsTrashTitle(t *testing.T) {
	if got := categoryPath([]string{"s", tree.TrashTitle, "x"}); len(got) != 0 {
		t.Errorf("categoryPath = %v, want empty", got)
	}
	got := categoryPath([]string{"s", "a", "b", "c"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("categoryPath = %v, want [a b]", got)
	}
}

func TestSaveAnalysis(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.addProblem("q")

	err := f.problems.SaveAnalysis(ctx, user, p, &svc.AnalysisRequest{Analysis: json.RawMessage(` {"steps":["求导"]} `)})
	require.NoError(t, err)
	snap, err := f.tree.Bootstrap(ctx, user)
	require.NoError(t, err)
	require.Len(t, snap.Problems, 1)
	assert.JSONEq(t, `{"steps":["求导"]}`, string(snap.Problems[0].AnalysisResult))

	require.NoError(t, f.problems.SaveAnalysis(ctx, user, p, &svc.AnalysisRequest{Analysis: json.RawMessage(`null`)}))
	snap, err = f.tree.Bootstrap(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, snap.Problems[0].AnalysisResult)
}

func TestSaveAnalysisRejections(t *testing.T) {
	f := newFixture()
	p := f.addProblem("q")

	tests := []struct {
		name    string
		id      string
		payload string
		wantErr error
	}{
		{"missing payload", p, ``, domain.ErrValidation},
		{"array", p, `[1,2]`, domain.ErrValidation},
		{"string", p, `"text"`, domain.ErrValidation},
		{"broken json", p, `{"a":`, domain.ErrValidation},
		{"too large", p, `{"a":"` + strings.Repeat("x", config.MaxAnalysisBytes) + `"}`, domain.ErrValidation},
		{"unknown problem", "missing", `{}`, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.problems.SaveAnalysis(context.Background(), user, tt.id, &svc.AnalysisRequest{Analysis: json.RawMessage(tt.payload)})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
