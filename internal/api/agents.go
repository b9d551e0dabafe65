package api

import "net/http"

// AgentInfo describes one workflow family for the frontend picker.
type AgentInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	AcceptsImage bool   `json:"accepts_image"`
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := []AgentInfo{}
	for _, fam := range s.registry.List() {
		agents = append(agents, AgentInfo{
			ID:           fam.Name,
			Name:         fam.Title,
			Description:  fam.Description,
			AcceptsImage: fam.AcceptsImage,
		})
	}
	writeJSON(w, http.StatusOK, agents)
}
