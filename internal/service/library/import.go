package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"problembox/internal/config"
	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	svc "problembox/internal/domain/services/library"
	"problembox/internal/tree"
)

// titleSuffix is trailing punctuation stripped from generated titles.
const titleSuffix = "。．.!！?？、"

// Import creates a problem and a file node per item. Unless forceParentOnly is
// set, the classifier's mid and small categories become nested folders under
// the parent folder, reusing folders that already exist.
func (s *problemService) Import(ctx context.Context, userID string, req *svc.ImportRequest) ([]*tree.Problem, error) {
	if err := validateImport(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// HTML pasted from web pages is stored as markdown; titles come from
	// its plain text.
	req, plain, err := s.normalizeItems(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = config.DefaultSubject
	}
	parentID := normalizeTarget(req.ParentFolderID)

	if parentID != nil {
		parent, err := s.nodes.GetByID(ctx, userID, *parentID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		if parent.Type != tree.NodeTypeFolder {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, tree.ErrNotFolder)
		}
	}

	var classes []svc.Classification
	if !req.ForceParentOnly {
		classes = s.classify(ctx, userID, subject, req)
	}

	created := make([]*tree.Problem, 0, len(req.Items))
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		folders := newFolderCache(s, userID)
		base := s.now().UnixMilli()

		for idx, item := range req.Items {
			var class svc.Classification
			if idx < len(classes) {
				class = classes[idx]
			}

			problem := &models.Problem{
				UserID:      userID,
				Title:       importTitle(item, class, plain[idx]),
				Subject:     subject,
				Difficulty:  importDifficulty(item, class),
				Description: item.Content,
				Tags:        importTags(item, class, subject, req.ForceParentOnly),
			}
			if err := s.problems.Create(ctx, problem); err != nil {
				return err
			}

			target := parentID
			if !req.ForceParentOnly {
				for _, title := range categoryPath(problem.Tags) {
					folder, err := folders.get(ctx, target, title)
					if err != nil {
						return err
					}
					target = &folder.ID
				}
			}

			node := &models.TreeNode{
				UserID:    userID,
				Title:     problem.Title,
				Type:      tree.NodeTypeFile,
				ParentID:  target,
				ProblemID: &problem.ID,
				SortOrder: base + int64(idx),
			}
			if err := s.nodes.Create(ctx, node); err != nil {
				return err
			}
			created = append(created, problem.View())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("problems imported",
		"user_id", userID,
		"subject", subject,
		"count", len(created),
		"classified", len(classes),
	)
	return created, nil
}

// normalizeItems converts HTML items to markdown and returns a copy of req
// with the plain text of every item alongside.
func (s *problemService) normalizeItems(req *svc.ImportRequest) (*svc.ImportRequest, []string, error) {
	out := *req
	out.Items = make([]svc.ImportItem, len(req.Items))
	plain := make([]string, len(req.Items))
	for i, item := range req.Items {
		converted, err := s.content.Markdown(item.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		plain[i] = s.content.PlainText(item.Content)
		item.Content = converted
		item.Title = s.content.PlainText(item.Title)
		out.Items[i] = item
	}
	return &out, plain, nil
}

// classify asks the classifier for categories. Failures degrade to an
// unclassified import.
func (s *problemService) classify(ctx context.Context, userID, subject string, req *svc.ImportRequest) []svc.Classification {
	if s.classifier == nil {
		return nil
	}

	existing, err := s.existingCategories(ctx, userID, subject)
	if err != nil {
		s.logger.Warn("list existing categories", "error", err)
	}

	items := make([]string, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.Content
	}

	ctx, cancel := context.WithTimeout(ctx, config.ClassifyTimeout)
	defer cancel()

	classes, err := s.classifier.Classify(ctx, &svc.ClassifyRequest{
		Subject:            subject,
		ExistingCategories: existing,
		Items:              items,
		Model:              req.ClassifyModel,
	})
	if err != nil {
		s.logger.Warn("classification failed, importing unclassified",
			"subject", subject,
			"items", len(items),
			"error", err,
		)
		return nil
	}
	return classes
}

// existingCategories returns the distinct mid categories already used in
// subject, in first-seen order.
func (s *problemService) existingCategories(ctx context.Context, userID, subject string) ([]string, error) {
	tagLists, err := s.problems.ListTagsBySubject(ctx, userID, subject)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, tags := range tagLists {
		if len(tags) < 2 || tags[1] == "" {
			continue
		}
		if _, ok := seen[tags[1]]; ok {
			continue
		}
		seen[tags[1]] = struct{}{}
		out = append(out, tags[1])
	}
	return out, nil
}

// folderCache resolves category folders once per import.
type folderCache struct {
	svc     *problemService
	userID  string
	folders map[string]*models.TreeNode
}

func newFolderCache(s *problemService, userID string) *folderCache {
	return &folderCache{svc: s, userID: userID, folders: make(map[string]*models.TreeNode)}
}

func (c *folderCache) get(ctx context.Context, parentID *string, title string) (*models.TreeNode, error) {
	key := "root::" + title
	if parentID != nil {
		key = *parentID + "::" + title
	}
	if folder, ok := c.folders[key]; ok {
		return folder, nil
	}

	folder, err := c.svc.nodes.FindFolder(ctx, c.userID, parentID, title)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		folder = &models.TreeNode{
			UserID:    c.userID,
			Title:     title,
			Type:      tree.NodeTypeFolder,
			ParentID:  parentID,
			SortOrder: c.svc.now().UnixMilli(),
		}
		if err := c.svc.nodes.Create(ctx, folder); err != nil {
			return nil, fmt.Errorf("create category folder %q: %w", title, err)
		}
	}
	c.folders[key] = folder
	return folder, nil
}

// categoryPath returns the mid and small folder titles from [subject, mid, small],
// cut to the node title limit.
func categoryPath(tags []string) []string {
	var path []string
	for i := 1; i < len(tags) && i <= 2; i++ {
		title := firstRunes(tags[i], config.MaxFolderTitleLength)
		if title == "" {
			break
		}
		// A root-level category may not shadow the trash folder.
		if len(path) == 0 && title == tree.TrashTitle {
			break
		}
		path = append(path, title)
	}
	return path
}

func importTitle(item svc.ImportItem, class svc.Classification, plain string) string {
	candidates := []string{
		item.Title,
		strings.TrimSpace(class.Summary),
		firstRunes(plain, config.ImportTitleLength),
	}
	for _, c := range candidates {
		if title := sanitizeTitle(c); title != "" {
			return firstRunes(title, config.MaxFolderTitleLength)
		}
	}
	return config.DefaultImportTitle
}

func importDifficulty(item svc.ImportItem, class svc.Classification) tree.Difficulty {
	if item.Difficulty != "" {
		return tree.NormalizeDifficulty(item.Difficulty)
	}
	if class.Difficulty.Valid() {
		return class.Difficulty
	}
	return tree.DifficultyMedium
}

func importTags(item svc.ImportItem, class svc.Classification, subject string, parentOnly bool) []string {
	if len(item.Tags) > 0 {
		return item.Tags
	}
	if parentOnly {
		return []string{subject}
	}
	tags := []string{subject}
	for _, t := range []string{class.Mid, class.Small} {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// sanitizeTitle trims whitespace and trailing sentence punctuation.
func sanitizeTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, titleSuffix)
	return strings.TrimSpace(s)
}

func firstRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func validateImport(req *svc.ImportRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Items,
			validation.Required,
			validation.Length(1, config.MaxImportItems),
			validation.Each(validation.By(validateImportItem)),
		),
	)
}

func validateImportItem(value interface{}) error {
	item, ok := value.(svc.ImportItem)
	if !ok {
		return errors.New("invalid item")
	}
	if strings.TrimSpace(item.Content) == "" {
		return errors.New("content is required")
	}
	if utf8.RuneCountInString(item.Content) > config.MaxImportContentLength {
		return fmt.Errorf("content exceeds %d characters", config.MaxImportContentLength)
	}
	return nil
}
