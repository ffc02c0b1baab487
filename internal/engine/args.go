package engine

import "errors"

// Each operation parses its loosely-typed argument bag into a typed request
// struct up front, so missing-field errors surface before resolution begins.

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

type insertContentArgs struct {
	Content      string
	SearchPhrase string
	BlockID      string
	Location     string
	Section      string
}

func parseInsertContent(args map[string]any) (insertContentArgs, error) {
	a := insertContentArgs{
		Content:      stringArg(args, "content"),
		SearchPhrase: stringArg(args, "searchPhrase"),
		BlockID:      stringArg(args, "blockId"),
		Location:     stringArg(args, "location"),
		Section:      stringArg(args, "section"),
	}
	if a.Content == "" {
		return a, errors.New("insertContent requires a content argument")
	}
	return a, nil
}

type replaceBlockArgs struct {
	BlockID string
	Content string
}

func parseReplaceBlock(args map[string]any) (replaceBlockArgs, error) {
	a := replaceBlockArgs{
		BlockID: stringArg(args, "blockId"),
		Content: stringArg(args, "content"),
	}
	if a.BlockID == "" {
		return a, errors.New("replaceBlock requires a blockId argument")
	}
	if a.Content == "" {
		return a, errors.New("replaceBlock requires a content argument")
	}
	return a, nil
}

type replaceInSectionArgs struct {
	Section      string
	SearchPhrase string
	Content      string
}

func parseReplaceInSection(args map[string]any) (replaceInSectionArgs, error) {
	a := replaceInSectionArgs{
		Section:      stringArg(args, "section"),
		SearchPhrase: stringArg(args, "searchPhrase"),
		Content:      stringArg(args, "content"),
	}
	if a.SearchPhrase == "" {
		return a, errors.New("replaceInSection requires a searchPhrase argument")
	}
	if a.Content == "" {
		return a, errors.New("replaceInSection requires a content argument")
	}
	return a, nil
}

type rewriteSectionArgs struct {
	Section string
	Content string
}

func parseRewriteSection(args map[string]any) (rewriteSectionArgs, error) {
	a := rewriteSectionArgs{
		Section: stringArg(args, "section"),
		Content: stringArg(args, "content"),
	}
	if a.Section == "" {
		return a, errors.New("rewriteSection requires a section argument")
	}
	if a.Content == "" {
		return a, errors.New("rewriteSection requires a content argument")
	}
	return a, nil
}

type deleteContentArgs struct {
	BlockID      string
	SearchPhrase string
	Section      string
}

func parseDeleteContent(args map[string]any) (deleteContentArgs, error) {
	a := deleteContentArgs{
		BlockID:      stringArg(args, "blockId"),
		SearchPhrase: stringArg(args, "searchPhrase"),
		Section:      stringArg(args, "section"),
	}
	if a.BlockID == "" && a.SearchPhrase == "" && a.Section == "" {
		return a, errors.New("deleteContent requires a blockId, searchPhrase, or section argument")
	}
	return a, nil
}

type addCitationArgs struct {
	PaperID   string
	BlockID   string
	AfterText string
	Section   string
}

func parseAddCitation(args map[string]any) (addCitationArgs, error) {
	a := addCitationArgs{
		PaperID:   stringArg(args, "paperId"),
		BlockID:   stringArg(args, "blockId"),
		AfterText: stringArg(args, "afterText"),
		Section:   stringArg(args, "section"),
	}
	if a.PaperID == "" {
		return a, errors.New("addCitation requires a paperId argument")
	}
	return a, nil
}

type highlightTextArgs struct {
	SearchPhrase string
	BlockID      string
	Section      string
	Color        string
}

func parseHighlightText(args map[string]any) (highlightTextArgs, error) {
	a := highlightTextArgs{
		SearchPhrase: stringArg(args, "searchPhrase"),
		BlockID:      stringArg(args, "blockId"),
		Section:      stringArg(args, "section"),
		Color:        stringArg(args, "color"),
	}
	if a.SearchPhrase == "" && a.BlockID == "" && a.Section == "" {
		return a, errors.New("highlightText requires a searchPhrase, blockId, or section argument")
	}
	return a, nil
}

type addCommentArgs struct {
	Comment      string
	SearchPhrase string
	BlockID      string
	Section      string
}

func parseAddComment(args map[string]any) (addCommentArgs, error) {
	a := addCommentArgs{
		Comment:      stringArg(args, "comment"),
		SearchPhrase: stringArg(args, "searchPhrase"),
		BlockID:      stringArg(args, "blockId"),
		Section:      stringArg(args, "section"),
	}
	if a.Comment == "" {
		return a, errors.New("addComment requires a comment argument")
	}
	return a, nil
}
