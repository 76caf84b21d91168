package api

import (
	"context"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/kit"
)

// Shared request/response types used by both HTTP and MCP transports.

type titlesReq struct {
	Query string
}

type titlesResponse struct {
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// resultReq selects a title by substring filter, falling back to Index
// when the filter is empty.
type resultReq struct {
	Title string
	Index int
}

func listTitlesEndpoint(s *atlas.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*titlesReq)
		titles := s.Titles()
		if req.Query != "" {
			titles = s.Search(req.Query)
		}
		if titles == nil {
			titles = []string{}
		}
		return titlesResponse{Titles: titles, Count: len(titles)}, nil
	}
}

func resultEndpoint(s *atlas.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*resultReq)
		title, err := selectTitle(s, req)
		if err != nil {
			return nil, err
		}
		return s.Result(title)
	}
}

func refreshEndpoint(s *atlas.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*resultReq)
		title, err := selectTitle(s, req)
		if err != nil {
			return nil, err
		}
		return s.Refresh(title)
	}
}

// selectTitle prefers an exact title over a substring match.
func selectTitle(s *atlas.Session, req *resultReq) (string, error) {
	for _, t := range s.Titles() {
		if t == req.Title {
			return t, nil
		}
	}
	return s.Select(req.Title, req.Index)
}
