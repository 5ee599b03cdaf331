package cms

import (
	"context"
	"fmt"
)

// BandInfo fetches the band description. ok is false when the API returned
// no data.
func (c *Client) BandInfo(ctx context.Context) (info BandInfo, ok bool, err error) {
	rec, ok, err := c.single(ctx, EndpointBandInfo)
	if err != nil || !ok {
		return BandInfo{}, ok, err
	}
	info, err = DecodeBandInfo(rec)
	return info, err == nil, err
}

// Services fetches the service collection.
func (c *Client) Services(ctx context.Context) ([]Service, bool, error) {
	return collection(ctx, c, EndpointServices, DecodeService)
}

// SocialMedia fetches the social profile links.
func (c *Client) SocialMedia(ctx context.Context) ([]SocialMedia, bool, error) {
	return collection(ctx, c, EndpointSocialMedia, DecodeSocialMedia)
}

// GalleryItems fetches gallery entries with their media populated.
func (c *Client) GalleryItems(ctx context.Context) ([]GalleryItem, bool, error) {
	return collection(ctx, c, EndpointGalleryItems, DecodeGalleryItem)
}

// ContactInfo fetches the booking contact block.
func (c *Client) ContactInfo(ctx context.Context) (info ContactInfo, ok bool, err error) {
	rec, ok, err := c.single(ctx, EndpointContactInfo)
	if err != nil || !ok {
		return ContactInfo{}, ok, err
	}
	info, err = DecodeContactInfo(rec)
	return info, err == nil, err
}

// TimelineEvents fetches the band history ordered by the order field.
func (c *Client) TimelineEvents(ctx context.Context) ([]TimelineEvent, bool, error) {
	return collection(ctx, c, EndpointTimelineEvents, DecodeTimelineEvent)
}

// BandMembers fetches member profiles with photos, ordered.
func (c *Client) BandMembers(ctx context.Context) ([]BandMember, bool, error) {
	return collection(ctx, c, EndpointBandMembers, DecodeBandMember)
}

// SiteSetting fetches the global layout settings.
func (c *Client) SiteSetting(ctx context.Context) (setting SiteSetting, ok bool, err error) {
	rec, ok, err := c.single(ctx, EndpointSiteSetting)
	if err != nil || !ok {
		return SiteSetting{}, ok, err
	}
	setting, err = DecodeSiteSetting(rec)
	return setting, err == nil, err
}

func (c *Client) single(ctx context.Context, endpoint string) (Record, bool, error) {
	env, err := c.FetchJSON(ctx, endpoint)
	if err != nil {
		return Record{}, false, err
	}
	rec, ok, err := env.Single()
	if err != nil {
		return Record{}, false, fmt.Errorf("%s: %w", endpoint, err)
	}
	return rec, ok, nil
}

func collection[T any](ctx context.Context, c *Client, endpoint string, decode func(Record) (T, error)) ([]T, bool, error) {
	env, err := c.FetchJSON(ctx, endpoint)
	if err != nil {
		return nil, false, err
	}
	if !env.HasData() {
		return nil, false, nil
	}
	records, err := env.List()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", endpoint, err)
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		item, err := decode(rec)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", endpoint, err)
		}
		out = append(out, item)
	}
	return out, true, nil
}
