package match

import (
	"encoding/json"
	"fmt"
	"strings"

	"haytruco/internal/service/game"
)

var personalityPrompts = map[string]string{
	"agresivo":    "Agresivo, apostar fuerte.",
	"conservador": "Conservador, cuidadoso.",
	"mentiroso":   "Mentiroso, bluffear.",
	"matematico":  "Calcular probabilidades.",
}

var personalityTemps = map[string]float32{
	"agresivo":    0.9,
	"conservador": 0.3,
	"mentiroso":   0.8,
	"matematico":  0.2,
}

func temperatureForPersonality(personality string) float32 {
	if t, ok := personalityTemps[personality]; ok {
		return t
	}
	return 0.7
}

// buildTurnPrompt renders a compact seat-scoped prompt for a normal turn.
// The action menu comes from the same eligibility rules the engine applies,
// so a well-behaved backend is steered toward legal moves.
func buildTurnPrompt(view *game.PlayerView, personality string, legalBids []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Truco Argentino. %s\n\n", personalityPrompts[personality])
	fmt.Fprintf(&b, "Cartas: %s\n", cardIDsJSON(view.MyCards))
	fmt.Fprintf(&b, "Mesa: %s\n", tableIDsJSON(view.Table))

	them := view.MyTeam.Opponent()
	fmt.Fprintf(&b, "Puntos: %d-%d\n", view.Score[view.MyTeam], view.Score[them])
	fmt.Fprintf(&b, "Rondas: %d-%d\n", view.RoundWins[view.MyTeam], view.RoundWins[them])
	fmt.Fprintf(&b, "Truco: %s\n", orNo(view.TrucoState))
	fmt.Fprintf(&b, "Envido: %s\n", orNo(view.EnvidoState))

	fmt.Fprintf(&b, "\nTu envido: %d\n\n", game.Envido(view.MyCards))
	b.WriteString(contextualActions(legalBids))

	b.WriteString("\nNota: \"frase\" es opcional - añade una frase que dirías al hacer la acción " +
		"(ej: \"¡Truco, carajo!\", \"Esta va de fierro\", \"No me la bancás\").\n\n")
	b.WriteString("IMPORTANTE: Usar exactamente \"accion\" (no \"respuesta\"). Responder solo JSON válido.")
	return b.String()
}

// buildBetResponsePrompt asks for a response to the outstanding bet.
func buildBetResponsePrompt(view *game.PlayerView, legalResponses []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Te cantaron %s.\n", view.CurrentBet.Type)
	fmt.Fprintf(&b, "Cartas: %s\n", cardIDsJSON(view.MyCards))
	fmt.Fprintf(&b, "Envido: %d\n\n", game.Envido(view.MyCards))

	b.WriteString("Opciones:\n")
	b.WriteString("- Aceptar: {\"accion\":\"responder\",\"valor\":\"quiero\",\"razon\":\"...\",\"pensamiento\":\"...\",\"frase\":\"...\"}\n")
	b.WriteString("- Rechazar: {\"accion\":\"responder\",\"valor\":\"no-quiero\",\"razon\":\"...\",\"pensamiento\":\"...\",\"frase\":\"...\"}\n")
	if counters := counterValues(legalResponses); counters != "" {
		fmt.Fprintf(&b, "- Subir: {\"accion\":\"responder\",\"valor\":\"%s\",\"razon\":\"...\",\"frase\":\"...\"}\n", counters)
	}

	b.WriteString("\nNota: \"frase\" es opcional - añade una frase que dirías al responder " +
		"(ej: \"¡Quiero!\", \"No me la bancás\", \"Dale que vamos\").\n\n")
	b.WriteString("IMPORTANTE: Usar exactamente \"accion\" (no \"respuesta\"). JSON:")
	return b.String()
}

func contextualActions(legalBids []string) string {
	actions := []string{
		"- Tirar carta: {\"accion\":\"tirar\",\"valor\":\"[id-carta]\",\"razon\":\"...\",\"pensamiento\":\"...\",\"frase\":\"...\"}",
	}

	var envidoBids, trucoBids []string
	for _, bid := range legalBids {
		switch bid {
		case game.BidEnvido, game.BidRealEnvido, game.BidFaltaEnvido:
			envidoBids = append(envidoBids, bid)
		default:
			trucoBids = append(trucoBids, bid)
		}
	}
	if len(envidoBids) > 0 {
		actions = append(actions, fmt.Sprintf(
			"- Cantar envido: {\"accion\":\"cantar\",\"valor\":\"%s\",\"razon\":\"...\",\"pensamiento\":\"...\",\"frase\":\"...\"}",
			strings.Join(envidoBids, "|")))
	}
	for _, bid := range trucoBids {
		actions = append(actions, fmt.Sprintf(
			"- Cantar %s: {\"accion\":\"cantar\",\"valor\":\"%s\",\"razon\":\"...\",\"pensamiento\":\"...\",\"frase\":\"...\"}",
			bid, bid))
	}

	return "Acciones disponibles:\n" + strings.Join(actions, "\n") + "\n"
}

func orNo(state string) string {
	if state == "" {
		return "no"
	}
	return state
}

func counterValues(legalResponses []string) string {
	var counters []string
	for _, r := range legalResponses {
		if r != game.RespondAccept && r != game.RespondReject {
			counters = append(counters, r)
		}
	}
	return strings.Join(counters, "|")
}

func cardIDsJSON(cards []game.Card) string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func tableIDsJSON(table []game.TableEntry) string {
	ids := make([]string, len(table))
	for i, t := range table {
		ids[i] = t.Card.ID
	}
	data, _ := json.Marshal(ids)
	return string(data)
}
