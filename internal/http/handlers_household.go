package http

import (
	"net/http"
	"time"

	"github.com/reisftw/duogesto/internal/core"
	"github.com/shopspring/decimal"
)

// Household planning endpoints: plain CRUD with no business rules.

type categoryRequest struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Kind  string `json:"kind"`
}

type categoryView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
	Kind  string `json:"kind"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{ID: c.ID, Label: c.Label, Icon: c.Icon, Color: c.Color, Kind: string(c.Kind)})
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	label := sanitizeInput(req.Label)
	if label == "" {
		respondError(w, r, badRequest("empty category label"))
		return
	}
	kind := core.CategoryKind(req.Kind)
	if kind == "" {
		kind = core.ExpenseCategory
	}
	c := core.Category{Label: label, Icon: req.Icon, Color: req.Color, Kind: kind}
	id, err := s.store.CreateCategory(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "categories", "create", id)
	respondJSON(w, http.StatusCreated, categoryView{ID: id, Label: c.Label, Icon: c.Icon, Color: c.Color, Kind: string(c.Kind)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "categories", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type roomRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.ListRooms(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, r, badRequest("empty room name"))
		return
	}
	room := core.Room{Name: name, Icon: req.Icon, Color: req.Color}
	id, err := s.store.CreateRoom(r.Context(), room)
	if err != nil {
		respondError(w, r, err)
		return
	}
	room.ID = id
	s.publish(r, "rooms", "create", id)
	respondJSON(w, http.StatusCreated, room)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteRoom(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "rooms", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type homeItemRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Link   string `json:"link"`
}

type homeItemView struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id,omitempty"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Link      string `json:"link,omitempty"`
	Bought    bool   `json:"bought"`
	CreatedAt string `json:"created_at"`
}

func toHomeItemView(it core.HomeItem) homeItemView {
	return homeItemView{
		ID:        it.ID,
		RoomID:    it.RoomID,
		Name:      it.Name,
		Price:     it.Price.String(),
		Link:      it.Link,
		Bought:    it.Bought,
		CreatedAt: viewDate(it.CreatedAt),
	}
}

func (s *Server) handleListHomeItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListHomeItems(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]homeItemView, 0, len(items))
	for _, it := range items {
		views = append(views, toHomeItemView(it))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateHomeItem(w http.ResponseWriter, r *http.Request) {
	var req homeItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, r, badRequest("empty item name"))
		return
	}
	price := decimal.Zero
	if req.Price != "" {
		var err error
		if price, err = core.ParseAmount(req.Price); err != nil {
			respondError(w, r, err)
			return
		}
	}
	it := core.HomeItem{RoomID: req.RoomID, Name: name, Price: price, Link: req.Link}
	id, err := s.store.CreateHomeItem(r.Context(), it)
	if err != nil {
		respondError(w, r, err)
		return
	}
	it.ID = id
	it.CreatedAt = time.Now()
	s.publish(r, "home_items", "create", id)
	respondJSON(w, http.StatusCreated, toHomeItemView(it))
}

func (s *Server) handleToggleHomeItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bought, err := s.store.ToggleHomeItemBought(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "home_items", "update", id)
	respondJSON(w, http.StatusOK, struct {
		Bought bool `json:"bought"`
	}{Bought: bought})
}

func (s *Server) handleDeleteHomeItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteHomeItem(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "home_items", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type propertyRequest struct {
	Title       string `json:"title"`
	Address     string `json:"address"`
	Price       string `json:"price"`
	CondoFee    string `json:"condo_fee"`
	Rooms       int    `json:"rooms"`
	Bathrooms   int    `json:"bathrooms"`
	HasGarage   bool   `json:"has_garage"`
	HasPool     bool   `json:"has_pool"`
	IsPenthouse bool   `json:"is_penthouse"`
	ForRent     bool   `json:"for_rent"`
	Link        string `json:"link"`
	Visited     bool   `json:"visited"`
}

type propertyView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Address     string `json:"address,omitempty"`
	Price       string `json:"price"`
	CondoFee    string `json:"condo_fee,omitempty"`
	Rooms       int    `json:"rooms,omitempty"`
	Bathrooms   int    `json:"bathrooms,omitempty"`
	HasGarage   bool   `json:"has_garage"`
	HasPool     bool   `json:"has_pool"`
	IsPenthouse bool   `json:"is_penthouse"`
	ForRent     bool   `json:"for_rent"`
	Link        string `json:"link,omitempty"`
	Visited     bool   `json:"visited"`
	CreatedAt   string `json:"created_at"`
}

func toPropertyView(p core.Property) propertyView {
	return propertyView{
		ID:          p.ID,
		Title:       p.Title,
		Address:     p.Address,
		Price:       p.Price.String(),
		CondoFee:    p.CondoFee.String(),
		Rooms:       p.Rooms,
		Bathrooms:   p.Bathrooms,
		HasGarage:   p.HasGarage,
		HasPool:     p.HasPool,
		IsPenthouse: p.IsPenthouse,
		ForRent:     p.ForRent,
		Link:        p.Link,
		Visited:     p.Visited,
		CreatedAt:   viewDate(p.CreatedAt),
	}
}

func (s *Server) propertyFromRequest(req propertyRequest) (core.Property, error) {
	title := sanitizeInput(req.Title)
	if title == "" {
		return core.Property{}, badRequest("empty property title")
	}
	p := core.Property{
		Title:       title,
		Address:     sanitizeInput(req.Address),
		Rooms:       req.Rooms,
		Bathrooms:   req.Bathrooms,
		HasGarage:   req.HasGarage,
		HasPool:     req.HasPool,
		IsPenthouse: req.IsPenthouse,
		ForRent:     req.ForRent,
		Link:        req.Link,
		Visited:     req.Visited,
	}
	var err error
	if req.Price != "" {
		if p.Price, err = core.ParseAmount(req.Price); err != nil {
			return core.Property{}, err
		}
	}
	if req.CondoFee != "" {
		if p.CondoFee, err = core.ParseAmount(req.CondoFee); err != nil {
			return core.Property{}, err
		}
	}
	return p, nil
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := s.store.ListProperties(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]propertyView, 0, len(properties))
	for _, p := range properties {
		views = append(views, toPropertyView(p))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.propertyFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := s.store.CreateProperty(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p.ID = id
	p.CreatedAt = time.Now()
	s.publish(r, "properties", "create", id)
	respondJSON(w, http.StatusCreated, toPropertyView(p))
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := s.propertyFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	p.ID = r.PathValue("id")
	if err := s.store.UpdateProperty(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "properties", "update", p.ID)
	respondJSON(w, http.StatusOK, toPropertyView(p))
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteProperty(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "properties", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type travelRequest struct {
	Title       string `json:"title"`
	Destination string `json:"destination"`
	Budget      string `json:"budget"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Visited     bool   `json:"visited"`
}

type travelCommentView struct {
	By   string `json:"by"`
	Text string `json:"text"`
	Date string `json:"date"`
}

type travelView struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Destination string              `json:"destination,omitempty"`
	Budget      string              `json:"budget"`
	StartDate   string              `json:"start_date,omitempty"`
	EndDate     string              `json:"end_date,omitempty"`
	Visited     bool                `json:"visited"`
	Comments    []travelCommentView `json:"comments"`
	CreatedAt   string              `json:"created_at"`
}

func toTravelView(t core.Travel) travelView {
	view := travelView{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Destination,
		Budget:      t.Budget.String(),
		StartDate:   viewDate(t.StartDate),
		EndDate:     viewDate(t.EndDate),
		Visited:     t.Visited,
		Comments:    make([]travelCommentView, 0, len(t.Comments)),
		CreatedAt:   viewDate(t.CreatedAt),
	}
	for _, c := range t.Comments {
		view.Comments = append(view.Comments, travelCommentView{By: c.By, Text: c.Text, Date: viewDate(c.Date)})
	}
	return view
}

func (s *Server) travelFromRequest(req travelRequest) (core.Travel, error) {
	title := sanitizeInput(req.Title)
	if title == "" {
		return core.Travel{}, badRequest("empty travel title")
	}
	t := core.Travel{
		Title:       title,
		Destination: sanitizeInput(req.Destination),
		Visited:     req.Visited,
	}
	var err error
	if req.Budget != "" {
		if t.Budget, err = core.ParseAmount(req.Budget); err != nil {
			return core.Travel{}, err
		}
	}
	if t.StartDate, err = parseDate(req.StartDate); err != nil {
		return core.Travel{}, err
	}
	if t.EndDate, err = parseDate(req.EndDate); err != nil {
		return core.Travel{}, err
	}
	return t, nil
}

func (s *Server) handleListTravels(w http.ResponseWriter, r *http.Request) {
	travels, err := s.store.ListTravels(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]travelView, 0, len(travels))
	for _, t := range travels {
		views = append(views, toTravelView(t))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateTravel(w http.ResponseWriter, r *http.Request) {
	var req travelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := s.travelFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := s.store.CreateTravel(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t.ID = id
	t.CreatedAt = time.Now()
	s.publish(r, "travels", "create", id)
	respondJSON(w, http.StatusCreated, toTravelView(t))
}

func (s *Server) handleUpdateTravel(w http.ResponseWriter, r *http.Request) {
	var req travelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := s.travelFromRequest(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t.ID = r.PathValue("id")

	// Keep the comment thread across edits.
	travels, err := s.store.ListTravels(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	for _, existing := range travels {
		if existing.ID == t.ID {
			t.Comments = existing.Comments
			t.CreatedAt = existing.CreatedAt
			break
		}
	}

	if err := s.store.UpdateTravel(r.Context(), t); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "travels", "update", t.ID)
	respondJSON(w, http.StatusOK, toTravelView(t))
}

func (s *Server) handleDeleteTravel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTravel(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "travels", "delete", id)
	respondJSON(w, http.StatusNoContent, nil)
}

type travelCommentRequest struct {
	By   string `json:"by"`
	Text string `json:"text"`
}

func (s *Server) handleAddTravelComment(w http.ResponseWriter, r *http.Request) {
	var req travelCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	text := sanitizeInput(req.Text)
	if text == "" {
		respondError(w, r, badRequest("empty comment"))
		return
	}

	id := r.PathValue("id")
	travels, err := s.store.ListTravels(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	var target *core.Travel
	for i := range travels {
		if travels[i].ID == id {
			target = &travels[i]
			break
		}
	}
	if target == nil {
		respondError(w, r, core.ErrNotFound)
		return
	}

	target.Comments = append(target.Comments, core.TravelComment{By: req.By, Text: text, Date: time.Now()})
	if err := s.store.UpdateTravel(r.Context(), *target); err != nil {
		respondError(w, r, err)
		return
	}
	s.publish(r, "travels", "update", id)
	respondJSON(w, http.StatusOK, toTravelView(*target))
}
