package recovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/oukeidos/pgnct/internal/pgn"
	"github.com/oukeidos/pgnct/internal/translator"
)

// RepairResult is the merged state after re-translating failed comments.
type RepairResult struct {
	Document     string
	Comments     []pgn.Comment
	Texts        []string
	Failed       []int
	Retried      int
	Translatable int
}

// Repair re-translates the failed comments of a session. log.InputPath must
// already be resolved to a readable path. Comment texts from the previous
// output are reused when its comment count matches the input; otherwise
// forceRepair is required and every comment is translated again.
func Repair(ctx context.Context, tr *translator.Translator, log *SessionLog, resolvedOutputPath string, forceRepair bool, onProgress func(translator.Progress)) (*RepairResult, error) {
	doc, err := pgn.Load(log.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	comments, err := pgn.Locate(doc)
	if err != nil {
		return nil, err
	}
	if sum := pgn.CommentsChecksumHex(comments); sum != log.CommentsChecksum {
		return nil, fmt.Errorf("comments checksum mismatch: expected %s, got %s", log.CommentsChecksum, sum)
	}

	texts := pgn.OriginalTexts(comments)
	targets := log.FailedComments

	reason := ""
	if out, err := pgn.Load(resolvedOutputPath); err != nil {
		reason = fmt.Sprintf("output read failed: %v", err)
	} else if outComments, err := pgn.Locate(out); err != nil {
		reason = fmt.Sprintf("output parse failed: %v", err)
	} else if len(outComments) != len(comments) {
		reason = fmt.Sprintf("comment count mismatch: expected %d, got %d", len(comments), len(outComments))
	} else {
		texts = pgn.OriginalTexts(outComments)
	}

	if reason != "" {
		if !forceRepair {
			return nil, fmt.Errorf("existing output could not be reused (%s). Use --force-repair to ignore existing output and re-translate", reason)
		}
		targets = make([]int, len(comments))
		for i := range targets {
			targets[i] = i
		}
	}

	outcomes, err := tr.TranslateIndices(ctx, comments, targets, onProgress)
	if err != nil {
		return nil, err
	}

	result := &RepairResult{Document: doc, Comments: comments, Texts: texts}
	for _, c := range comments {
		if !c.Blank() {
			result.Translatable++
		}
	}
	seen := make(map[int]bool, len(targets))
	for _, idx := range targets {
		if idx < 0 || idx >= len(comments) || seen[idx] {
			continue
		}
		seen[idx] = true
		if comments[idx].Blank() {
			continue
		}
		result.Retried++
		if o := outcomes[idx]; o.Failed() {
			result.Failed = append(result.Failed, idx)
		} else if o.Translated {
			texts[idx] = o.Text
		}
	}
	sort.Ints(result.Failed)
	return result, nil
}
