package usecase

import (
	"context"
	"fmt"

	"github.com/kolam-ikan/kolam/internal/document"
	"github.com/kolam-ikan/kolam/internal/model"
	"github.com/kolam-ikan/kolam/internal/services"
	"github.com/kolam-ikan/kolam/internal/store"
)

const tutorialTitle = "Welcome to Kolam Ikan"

const tutorialWelcome = `{"type":"doc","content":[
{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"Welcome!"}]},
{"type":"paragraph","content":[{"type":"text","text":"Kolam Ikan is your personal thinking space. Here's how it works:"}]},
{"type":"orderedList","content":[
{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","marks":[{"type":"bold"}],"text":"Write freely"},{"type":"text","text":" - Just start typing your thoughts."}]}]},
{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","marks":[{"type":"bold"}],"text":"Stage context"},{"type":"text","text":" - Stage the entries you want to send to AI."}]}]},
{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","marks":[{"type":"bold"}],"text":"Choose a directive"},{"type":"text","text":" - DUMP (refactor), CRITIQUE (find gaps), or GENERATE (expand)."}]}]},
{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","marks":[{"type":"bold"}],"text":"Copy & paste"},{"type":"text","text":" - Export the block to your chat and import the reply."}]}]}
]}
]}`

// EnsureTutorialStream seeds a pinned welcome stream when no stream exists.
// It returns the new stream, or nil when streams were already present. The
// check and the seed run in one transaction.
func (a *App) EnsureTutorialStream(ctx context.Context) (*model.Stream, error) {
	welcome, err := document.Parse([]byte(tutorialWelcome))
	if err != nil {
		return nil, fmt.Errorf("tutorial content: %w", err)
	}

	var stream *model.Stream
	err = a.Store.Atomic(ctx, func(tx store.Store) error {
		existing, err := tx.ListStreams(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		desc := "Your first stream - feel free to experiment here!"
		created, err := services.NewStreamService(tx).Create(ctx, services.CreateStreamInput{
			Title:       tutorialTitle,
			Description: &desc,
			Tags:        []string{"tutorial"},
			Pinned:      true,
		})
		if err != nil {
			return err
		}

		entries := services.NewEntryService(tx)
		for _, content := range []document.Document{welcome, document.Empty()} {
			if _, err := entries.Create(ctx, services.CreateEntryInput{StreamID: created.ID, Content: content}); err != nil {
				return err
			}
		}
		stream = created
		return nil
	})
	if err != nil || stream == nil {
		return nil, err
	}

	a.log.Info(ctx, "tutorial stream created", "stream", stream.ID)
	return stream, nil
}
