package dispatch

import (
	"context"

	"github.com/google/uuid"

	"github.com/caldera-ai/concierge/internal/provider"
)

// buildAdapters wires each built-in tool name to exactly one provider call.
// Nil providers are simply left unwired; dispatching such a tool yields a
// structured "unknown tool" failure.
func buildAdapters(p Providers) map[string]adapter {
	adapters := make(map[string]adapter)

	if p.Calendar != nil {
		adapters["calendar.create_booking"] = adapter{
			invoke: func(ctx context.Context, tenantID uuid.UUID, params map[string]any) (map[string]any, error) {
				req := provider.BookingRequest{
					Date:      stringParam(params, "date"),
					Time:      stringParam(params, "time"),
					PartySize: intParam(params, "party_size"),
					Notes:     stringParam(params, "notes"),
				}

				booking, err := p.Calendar.CreateBooking(ctx, tenantID, req)
				if err != nil {
					return nil, err
				}

				return map[string]any{
					"booking_id": booking.ID,
					"date":       booking.Date,
					"time":       booking.Time,
					"status":     booking.Status,
				}, nil
			},
			compensationParams: func(result map[string]any) map[string]any {
				return map[string]any{"booking_id": result["booking_id"]}
			},
		}

		adapters["calendar.cancel_booking"] = adapter{
			invoke: func(ctx context.Context, tenantID uuid.UUID, params map[string]any) (map[string]any, error) {
				bookingID := stringParam(params, "booking_id")
				if err := p.Calendar.CancelBooking(ctx, tenantID, bookingID, stringParam(params, "reason")); err != nil {
					return nil, err
				}

				return map[string]any{"booking_id": bookingID, "cancelled": true}, nil
			},
		}
	}

	if p.Mailer != nil {
		adapters["email.send"] = adapter{
			invoke: func(ctx context.Context, _ uuid.UUID, params map[string]any) (map[string]any, error) {
				to := stringParam(params, "to")
				messageID, err := p.Mailer.Send(ctx, to, stringParam(params, "subject"), stringParam(params, "body"))
				if err != nil {
					return nil, err
				}

				return map[string]any{"message_id": messageID, "to": to}, nil
			},
		}

		if p.HelpdeskAddr != "" {
			adapters["ticket.open"] = adapter{
				invoke: func(ctx context.Context, _ uuid.UUID, params map[string]any) (map[string]any, error) {
					messageID, err := p.Mailer.Send(ctx, p.HelpdeskAddr, stringParam(params, "subject"), stringParam(params, "body"))
					if err != nil {
						return nil, err
					}

					return map[string]any{"ticket_ref": messageID}, nil
				},
			}
		}
	}

	if p.Messenger != nil {
		adapters["message.send"] = adapter{
			invoke: func(ctx context.Context, _ uuid.UUID, params map[string]any) (map[string]any, error) {
				channel := stringParam(params, "channel")
				messageID, err := p.Messenger.SendMessage(ctx, channel, stringParam(params, "text"))
				if err != nil {
					return nil, err
				}

				return map[string]any{"message_id": messageID, "channel": channel}, nil
			},
		}
	}

	if p.Transcriber != nil {
		adapters["audio.transcribe"] = adapter{
			invoke: func(ctx context.Context, _ uuid.UUID, params map[string]any) (map[string]any, error) {
				text, err := p.Transcriber.Transcribe(ctx, stringParam(params, "audio_url"))
				if err != nil {
					return nil, err
				}

				return map[string]any{"text": text}, nil
			},
		}
	}

	if p.Vision != nil {
		adapters["image.analyze"] = adapter{
			invoke: func(ctx context.Context, _ uuid.UUID, params map[string]any) (map[string]any, error) {
				description, err := p.Vision.Analyze(ctx, stringParam(params, "image_url"), stringParam(params, "prompt"))
				if err != nil {
					return nil, err
				}

				return map[string]any{"description": description}, nil
			},
		}
	}

	if p.Knowledge != nil {
		adapters["knowledge.search"] = adapter{
			invoke: func(ctx context.Context, tenantID uuid.UUID, params map[string]any) (map[string]any, error) {
				docs, err := p.Knowledge.Search(ctx, tenantID, stringParam(params, "query"), intParamDefault(params, "limit", 5))
				if err != nil {
					return nil, err
				}

				results := make([]map[string]any, 0, len(docs))
				for _, doc := range docs {
					results = append(results, map[string]any{
						"id":      doc.ID,
						"title":   doc.Title,
						"content": doc.Content,
						"score":   doc.Score,
					})
				}

				return map[string]any{"results": results, "count": len(results)}, nil
			},
		}
	}

	return adapters
}

// stringParam returns params[key] as a string, or "" when absent or not a
// string. Required-ness is enforced by validateParams before invocation.
func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// intParam handles both int and float64 (JSON numbers decode as float64).
func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func intParamDefault(params map[string]any, key string, fallback int) int {
	if _, ok := params[key]; !ok {
		return fallback
	}
	if n := intParam(params, key); n > 0 {
		return n
	}
	return fallback
}
