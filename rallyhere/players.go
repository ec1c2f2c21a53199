package rallyhere

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/s0up4200/s2match/smite"
)

// LookupPlayers finds players by display name, optionally restricted to a
// platform. With includeLinked, each identity's linked portals are fetched
// too; a failed linked portal fetch leaves an empty list and the error text
// on that identity instead of failing the lookup.
func (c *Client) LookupPlayers(ctx context.Context, names []string, platform string, includeLinked bool, opts ...CallOption) (*smite.PlayerLookup, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one display name is required")
	}
	co := applyCallOptions(opts)

	params := url.Values{"display_name": names}
	if platform != "" {
		params.Set("platform", platform)
	}

	var lookup smite.PlayerLookup
	if err := c.getJSON(ctx, "/users/v1/player", params, co, &lookup); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Strs("display_names", names).
		Str("platform", platform).
		Msg("Looked up players")

	if !includeLinked {
		return &lookup, nil
	}

	var ctxErr error
	lookup.Each(func(_ string, p *smite.PlayerIdentity) {
		id, ok := p.PlayerID.Get()
		if !ok || ctxErr != nil {
			return
		}
		portals, err := c.linkedPortals(ctx, id, co)
		if err != nil {
			if isCanceled(err) {
				ctxErr = err
				return
			}
			c.logger.Warn().Err(err).Int64("player_id", id).Msg("Failed to fetch linked portals")
			p.LinkedPortals = []smite.LinkedPortal{}
			p.LinkedPortalsError = err.Error()
			return
		}
		p.LinkedPortals = portals
	})
	if ctxErr != nil {
		return nil, ctxErr
	}

	return &lookup, nil
}

// FlatPlayers is LookupPlayers followed by smite.Flatten.
func (c *Client) FlatPlayers(ctx context.Context, names []string, platform string, includeLinked bool, opts ...CallOption) ([]smite.FlatPlayer, error) {
	lookup, err := c.LookupPlayers(ctx, names, platform, includeLinked, opts...)
	if err != nil {
		return nil, err
	}
	return smite.Flatten(lookup), nil
}

// PlayerByPlatformUser finds a player by platform identity.
func (c *Client) PlayerByPlatformUser(ctx context.Context, platform, platformUserID string, opts ...CallOption) (*PlatformUser, error) {
	params := url.Values{
		"platform":         {platform},
		"platform_user_id": {platformUserID},
	}

	var user PlatformUser
	if err := c.getJSON(ctx, "/users/v1/platform-user", params, applyCallOptions(opts), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkedPortals returns the platform identities linked to a player.
func (c *Client) LinkedPortals(ctx context.Context, playerID int64, opts ...CallOption) ([]smite.LinkedPortal, error) {
	return c.linkedPortals(ctx, playerID, applyCallOptions(opts))
}

func (c *Client) linkedPortals(ctx context.Context, playerID int64, co callOptions) ([]smite.LinkedPortal, error) {
	endpoint := "/users/v1/player/" + strconv.FormatInt(playerID, 10) + "/linked_portals"

	var resp linkedPortalsResponse
	if err := c.getJSON(ctx, endpoint, nil, co, &resp); err != nil {
		return nil, err
	}
	if resp.LinkedPortals == nil {
		return []smite.LinkedPortal{}, nil
	}
	return resp.LinkedPortals, nil
}
