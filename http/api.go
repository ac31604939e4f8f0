package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fwojciec/mtgrules"
	"github.com/fwojciec/mtgrules/chat"
)

// RulesResponse is the body of GET api/rules.
type RulesResponse struct {
	Results []mtgrules.RuleMatch `json:"results"`
	Total   int                  `json:"total"`
}

// GlossaryResponse is the body of GET api/glossary. Of is the size of the
// unfiltered glossary.
type GlossaryResponse struct {
	Results []mtgrules.GlossaryEntry `json:"results"`
	Total   int                      `json:"total"`
	Of      int                      `json:"of"`
}

// CategorySummary is a category with the number of rules in its section.
type CategorySummary struct {
	mtgrules.Category
	RuleCount int `json:"ruleCount"`
}

// CategoryResponse is the body of GET api/categories/{id}.
type CategoryResponse struct {
	Category mtgrules.Category `json:"category"`
	Rules    []mtgrules.Rule   `json:"rules"`
}

// ChatRequest is the body of POST api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by POST api/chat.
type ChatResponse struct {
	Reply chat.Message `json:"reply"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")

	var opts mtgrules.SearchOptions
	if v := q.Get("preview"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			Error(w, r, s.logger, mtgrules.Errorf(mtgrules.EINVALID, "preview must be a non-negative integer"))
			return
		}
		opts.PreviewSize = n
	}
	highlight, _ := strconv.ParseBool(q.Get("highlight"))

	doc, err := s.content.Rules(r.Context())
	if err != nil {
		s.logger.Error("failed to load rules", "err", err)
		writeJSON(w, http.StatusOK, &RulesResponse{Results: []mtgrules.RuleMatch{}})
		return
	}

	results := mtgrules.SearchRules(doc, query, opts)
	if highlight {
		for i := range results {
			results[i] = mtgrules.DefaultHighlighter.HighlightMatch(results[i], query)
		}
	}
	if results == nil {
		results = []mtgrules.RuleMatch{}
	}
	writeJSON(w, http.StatusOK, &RulesResponse{Results: results, Total: len(results)})
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	doc, err := s.content.Rules(r.Context())
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	m, err := doc.FindRule(r.PathValue("number"))
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request) {
	g, err := s.content.Glossary(r.Context())
	if err != nil {
		s.logger.Error("failed to load glossary", "err", err)
		writeJSON(w, http.StatusOK, &GlossaryResponse{Results: []mtgrules.GlossaryEntry{}})
		return
	}

	results := mtgrules.FilterGlossary(g.Entries, mtgrules.GlossaryQuery{
		Term: r.URL.Query().Get("term"),
		Text: r.URL.Query().Get("text"),
	})
	writeJSON(w, http.StatusOK, &GlossaryResponse{Results: results, Total: len(results), Of: len(g.Entries)})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	doc, err := s.content.Rules(r.Context())
	if err != nil {
		s.logger.Error("failed to load rules", "err", err)
	}

	categories := mtgrules.Categories()
	out := make([]CategorySummary, len(categories))
	for i, c := range categories {
		out[i] = CategorySummary{Category: c}
		if doc == nil {
			continue
		}
		if sec, ok := doc.Section(c.ID); ok {
			out[i].RuleCount = len(sec.Rules())
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	c, err := mtgrules.CategoryByID(r.PathValue("id"))
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}

	resp := &CategoryResponse{Category: c, Rules: []mtgrules.Rule{}}
	doc, err := s.content.Rules(r.Context())
	if err != nil {
		s.logger.Error("failed to load rules", "err", err)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if sec, ok := doc.Section(c.ID); ok {
		if rules := sec.Rules(); rules != nil {
			resp.Rules = rules
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := s.content.Index(r.Context())
	if err != nil {
		s.logger.Error("failed to load rules index", "err", err)
		writeJSON(w, http.StatusOK, &mtgrules.RulesIndex{Sections: []mtgrules.IndexSection{}})
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		Error(w, r, s.logger, mtgrules.Errorf(mtgrules.EINVALID, "invalid chat request: %v", err))
		return
	}

	reply, err := chat.NewSession(s.asker).Send(r.Context(), req.Message)
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, &ChatResponse{Reply: reply})
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	st, err := s.manager.Status(r.Context())
	if err != nil {
		Error(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
