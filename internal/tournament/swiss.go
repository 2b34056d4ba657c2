package tournament

// roundSteps maps an upper bound on player count to the Swiss round count.
// 0 rounds means a single-elimination event.
var roundSteps = []struct {
	maxPlayers int
	rounds     int
}{
	{8, 0},
	{16, 5},
	{32, 5},
	{64, 6},
	{128, 7},
	{226, 8},
	{409, 9},
}

const maxRounds = 10

// RoundCount returns the number of Swiss rounds played for a player count.
func RoundCount(players int) int {
	for _, step := range roundSteps {
		if players <= step.maxPlayers {
			return step.rounds
		}
	}
	return maxRounds
}

// NewStanding builds a standing row, deriving wins, draws and losses from the
// match points and the round count implied by the tournament's player count.
func NewStanding(rank int, player string, points, players int, omwp, gwp, ogwp float64) Standing {
	wins := points / 3
	draws := points % 3
	return Standing{
		Rank:   rank,
		Player: player,
		Points: points,
		Wins:   wins,
		Losses: RoundCount(players) - wins - draws,
		Draws:  draws,
		OMWP:   omwp,
		GWP:    gwp,
		OGWP:   ogwp,
	}
}
