package console

import (
	"fmt"
	"math"
	"strings"

	"github.com/diillson/cloud-price-comparator/internal/shared/types"
	"github.com/pterm/pterm"
)

// Console é uma implementação do ConsoleInterface.
type Console struct{}

// NewConsole cria um novo Console.
func NewConsole() *Console {
	return &Console{}
}

// Print imprime no console.
func (c *Console) Print(a ...interface{}) {
	fmt.Print(a...)
}

// Printf imprime uma string formatada no console.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

// Println imprime no console com uma nova linha.
func (c *Console) Println(a ...interface{}) {
	fmt.Println(a...)
}

// LogInfo registra uma mensagem de informação.
func (c *Console) LogInfo(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

// LogWarning registra uma mensagem de aviso.
func (c *Console) LogWarning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

// LogError registra uma mensagem de erro.
func (c *Console) LogError(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}

// LogSuccess registra uma mensagem de sucesso.
func (c *Console) LogSuccess(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

// statusHandle é uma implementação do StatusHandle.
type statusHandle struct {
	spinner *pterm.SpinnerPrinter
}

// Status cria um spinner de status com a mensagem especificada.
func (c *Console) Status(message string) types.StatusHandle {
	spinner, _ := pterm.DefaultSpinner.Start(message)
	return &statusHandle{spinner: spinner}
}

// Update atualiza a mensagem de status.
func (h *statusHandle) Update(message string) {
	if h.spinner != nil {
		h.spinner.UpdateText(message)
	}
}

// Stop pára o spinner de status.
func (h *statusHandle) Stop() {
	if h.spinner != nil {
		h.spinner.Stop()
	}
}

// Table é uma implementação do TableInterface.
type Table struct {
	columns []string
	rows    [][]string
}

// CreateTable cria uma nova tabela.
func (c *Console) CreateTable() types.TableInterface {
	return &Table{
		columns: []string{},
		rows:    [][]string{},
	}
}

// AddColumn adiciona uma coluna à tabela.
func (t *Table) AddColumn(name string, options ...interface{}) {
	t.columns = append(t.columns, name)
}

// AddRow adiciona uma linha à tabela.
func (t *Table) AddRow(cells ...interface{}) {
	// Convertemos cada célula para string
	processedCells := make([]string, len(cells))
	for i, cell := range cells {
		processedCells[i] = fmt.Sprint(cell)
	}
	t.rows = append(t.rows, processedCells)
}

// Render renderiza a tabela como uma string.
func (t *Table) Render() string {
	// Use o pterm para criar uma tabela visualmente agradável
	tableData := pterm.TableData{t.columns}
	for _, row := range t.rows {
		tableData = append(tableData, row)
	}

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData)

	renderedTable, _ := table.Srender()
	return renderedTable
}

// barWidth é o comprimento da maior barra do gráfico.
const barWidth = 40

// priceBar é uma linha já calculada do gráfico de preços.
type priceBar struct {
	label    string
	price    float64
	length   int
	cheapest bool
	// delta em % sobre o mais barato; negativo quando não se aplica.
	delta float64
}

// priceBarRows escala as barras pelo maior preço e calcula a diferença para o
// mais barato. Retorna nil quando todos os preços são zero.
func priceBarRows(bars []types.PriceBar) []priceBar {
	if len(bars) == 0 {
		return nil
	}

	maxPrice, cheapest := bars[0].Price, bars[0].Price
	for _, b := range bars[1:] {
		maxPrice = math.Max(maxPrice, b.Price)
		cheapest = math.Min(cheapest, b.Price)
	}
	if maxPrice == 0 {
		return nil
	}

	rows := make([]priceBar, 0, len(bars))
	for _, b := range bars {
		row := priceBar{
			label:    b.Label,
			price:    b.Price,
			length:   int(math.Round(b.Price / maxPrice * barWidth)),
			cheapest: b.Price == cheapest,
			delta:    -1,
		}
		if !row.cheapest && cheapest > 0 {
			row.delta = (b.Price - cheapest) / cheapest * 100.0
		}
		rows = append(rows, row)
	}
	return rows
}

// DisplayPriceBars exibe um gráfico de barras com o preço por hora de cada provedor.
func (c *Console) DisplayPriceBars(title string, bars []types.PriceBar) {
	if len(bars) == 0 {
		return
	}
	rows := priceBarRows(bars)
	if rows == nil {
		pterm.Warning.Println("All on-demand prices are $0.0000/hr for this selection")
		return
	}

	tableData := pterm.TableData{
		{"Provider", "On-Demand", "", "vs. Cheapest"},
	}
	for i, r := range rows {
		bar := strings.Repeat("█", r.length)

		barColor := pterm.FgBlue.Sprint(bar)
		var delta string
		switch {
		case r.cheapest:
			barColor = pterm.FgGreen.Sprint(bar)
			delta = pterm.FgGreen.Sprint("cheapest")
		case r.delta < 0:
			delta = pterm.FgYellow.Sprint("N/A")
		default:
			if i == len(rows)-1 {
				barColor = pterm.FgRed.Sprint(bar)
			}
			delta = pterm.FgRed.Sprintf("+%.1f%%", r.delta)
		}

		tableData = append(tableData, []string{
			r.label,
			fmt.Sprintf("$%.4f/hr", r.price),
			barColor,
			delta,
		})
	}

	rendered, _ := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	panel := pterm.DefaultBox.WithTitle(title).WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).Sprint(rendered)

	fmt.Println("\n" + panel)
}
