package store

import "nanowallet/core/types"

// FiltersInitialState is the filter selection before any AddFilter.
func FiltersInitialState() map[string]types.Filter {
	return map[string]types.Filter{types.FilterScopeTransactions: types.FilterAll}
}

// FiltersReducer records the selected value per filter scope. Any other
// action returns the state unchanged.
func FiltersReducer(state map[string]types.Filter, action Action) map[string]types.Filter {
	if state == nil {
		state = FiltersInitialState()
	}
	if action.Type != AddFilter {
		return state
	}
	data, ok := action.Data.(AddFilterData)
	if !ok {
		return state
	}
	next := make(map[string]types.Filter, len(state)+1)
	for key, value := range state {
		next[key] = value
	}
	next[data.FilterName] = data.Value
	return next
}
