package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	jsonv2 "encoding/json/v2"

	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/service/resource"
)

const uploadPath = "/api/upload/image"

// Gateway translates one resource's operations into REST calls. It is a thin
// layer: all cross-cutting behaviour lives in the shared Client.
type Gateway struct {
	client *Client
	desc   domain.Descriptor
}

var _ resource.Gateway = (*Gateway)(nil)

func NewGateway(client *Client, desc domain.Descriptor) *Gateway {
	return &Gateway{client: client, desc: desc}
}

func (g *Gateway) List(ctx context.Context) ([]domain.Record, error) {
	body, err := g.client.GetJSON(ctx, g.desc.BasePath)
	if err != nil {
		// a 304 still carries the cached payload; decode it so callers that
		// want the data anyway can have it
		if errors.Is(err, resource.ErrNotModified) && len(body) > 0 {
			records, decodeErr := unwrapList(body)
			if decodeErr != nil {
				return nil, err
			}
			return records, err
		}
		return nil, err
	}
	return unwrapList(body)
}

func (g *Gateway) GetByID(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, resource.ErrEmptyRecordID
	}

	body, err := g.client.GetJSON(ctx, g.recordPath(id))
	if err != nil {
		if errors.Is(err, resource.ErrNotModified) && len(body) > 0 {
			record, decodeErr := unwrapRecord(body)
			if decodeErr != nil {
				return nil, err
			}
			return record, err
		}
		return nil, err
	}
	return unwrapRecord(body)
}

func (g *Gateway) Create(ctx context.Context, payload domain.Record) (domain.Record, error) {
	body, err := g.write(ctx, http.MethodPost, g.desc.BasePath, payload)
	if err != nil {
		return nil, err
	}
	return unwrapRecord(body)
}

func (g *Gateway) Update(ctx context.Context, id string, payload domain.Record) (domain.Record, error) {
	if id == "" {
		return nil, resource.ErrEmptyRecordID
	}

	body, err := g.write(ctx, http.MethodPut, g.recordPath(id), payload)
	if err != nil {
		return nil, err
	}
	return unwrapRecord(body)
}

// write picks the encoding: multipart when the resource supports uploads and
// a file is staged on the payload, JSON otherwise.
func (g *Gateway) write(ctx context.Context, method, path string, payload domain.Record) ([]byte, error) {
	if g.desc.SupportsUpload {
		if att, ok := domain.StagedAttachment(payload); ok {
			return g.client.SendMultipart(ctx, method, path, payload, att)
		}
	}

	// the reserved attachment key must never reach the wire
	if _, ok := payload[domain.AttachmentKey]; ok {
		clean := make(domain.Record, len(payload))
		for k, v := range payload {
			if k == domain.AttachmentKey {
				continue
			}
			clean[k] = v
		}
		payload = clean
	}

	return g.client.SendJSON(ctx, method, path, payload)
}

func (g *Gateway) Delete(ctx context.Context, id string) error {
	if id == "" {
		return resource.ErrEmptyRecordID
	}

	_, err := g.client.SendJSON(ctx, http.MethodDelete, g.recordPath(id), nil)
	return err
}

// UploadAsset posts a file to the shared upload endpoint. The backend has
// answered with both {"url": ...} and {"imageUrl": ...} over time, so both
// are accepted.
func (g *Gateway) UploadAsset(ctx context.Context, filename string, content []byte) (string, error) {
	att := &domain.Attachment{Field: "image", Filename: filename, Content: content}

	body, err := g.client.SendMultipart(ctx, http.MethodPost, uploadPath, domain.Record{}, att)
	if err != nil {
		return "", err
	}

	var result struct {
		URL      string `json:"url"`
		ImageURL string `json:"imageUrl"`
	}
	if err := jsonv2.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("restapi: decoding upload response: %w", err)
	}
	if result.URL != "" {
		return result.URL, nil
	}
	if result.ImageURL != "" {
		return result.ImageURL, nil
	}
	return "", fmt.Errorf("restapi: upload response carried no url")
}

func (g *Gateway) recordPath(id string) string {
	return g.desc.BasePath + "/" + url.PathEscape(id)
}

// unwrapList tolerates both response shapes seen across entities: a bare
// array and an envelope with a "data" array.
func unwrapList(body []byte) ([]domain.Record, error) {
	var bare []domain.Record
	if err := jsonv2.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var envelope struct {
		Data []domain.Record `json:"data"`
	}
	if err := jsonv2.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	return nil, fmt.Errorf("restapi: response is neither an array nor a data envelope")
}

// unwrapRecord tolerates a bare object and a {"data": {...}} envelope.
func unwrapRecord(body []byte) (domain.Record, error) {
	if len(body) == 0 {
		// some backends answer writes with an empty body; nothing to unwrap
		return nil, nil
	}

	var raw map[string]any
	if err := jsonv2.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("restapi: decoding record: %w", err)
	}

	if data, ok := raw["data"].(map[string]any); ok && len(raw) <= 2 {
		return domain.Record(data), nil
	}
	return domain.Record(raw), nil
}
